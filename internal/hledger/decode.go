package hledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/calder-fi/hledger-engine/internal/ledger"
)

// Wire types for `hledger print -O json`. Required fields are pointers so a
// missing key is distinguishable from a zero value and decoding can fail
// loudly instead of fabricating data.

type jsonQuantity struct {
	DecimalMantissa *int64 `json:"decimalMantissa"`
	DecimalPlaces   *int32 `json:"decimalPlaces"`
}

type jsonStyle struct {
	CommoditySide   string          `json:"ascommodityside"`
	CommoditySpaced bool            `json:"ascommodityspaced"`
	DecimalMark     string          `json:"asdecimalmark"`
	DigitGroups     json.RawMessage `json:"asdigitgroups"`
	Precision       json.RawMessage `json:"asprecision"`
}

type jsonCost struct {
	Tag      string      `json:"tag"`
	Contents *jsonAmount `json:"contents"`
}

type jsonAmount struct {
	Commodity *string       `json:"acommodity"`
	Quantity  *jsonQuantity `json:"aquantity"`
	Style     *jsonStyle    `json:"astyle"`
	Cost      *jsonCost     `json:"acost"`
}

type jsonPosting struct {
	Account *string      `json:"paccount"`
	Amounts []jsonAmount `json:"pamount"`
	Comment string       `json:"pcomment"`
	Status  string       `json:"pstatus"`
}

type jsonSourcePos struct {
	Name   string `json:"sourceName"`
	Line   int    `json:"sourceLine"`
	Column int    `json:"sourceColumn"`
}

type jsonTransaction struct {
	Index       *int            `json:"tindex"`
	Date        *string         `json:"tdate"`
	Date2       string          `json:"tdate2"`
	Description *string         `json:"tdescription"`
	Status      string          `json:"tstatus"`
	Code        string          `json:"tcode"`
	Comment     string          `json:"tcomment"`
	Postings    []jsonPosting   `json:"tpostings"`
	SourcePos   []jsonSourcePos `json:"tsourcepos"`
	Tags        [][]string      `json:"ttags"`
}

// DecodeTransactions parses the JSON document produced by
// `hledger print -O json` into model transactions, in file order.
func DecodeTransactions(data []byte) ([]ledger.Transaction, error) {
	var raw []jsonTransaction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode hledger JSON: %w", err)
	}

	txns := make([]ledger.Transaction, 0, len(raw))
	for i, rt := range raw {
		txn, err := decodeTransaction(rt)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func decodeTransaction(rt jsonTransaction) (ledger.Transaction, error) {
	if rt.Index == nil {
		return ledger.Transaction{}, fmt.Errorf("missing tindex")
	}
	if rt.Date == nil {
		return ledger.Transaction{}, fmt.Errorf("missing tdate")
	}
	if rt.Description == nil {
		return ledger.Transaction{}, fmt.Errorf("missing tdescription")
	}

	status, err := decodeStatus(rt.Status)
	if err != nil {
		return ledger.Transaction{}, err
	}

	txn := ledger.Transaction{
		Index:       *rt.Index,
		Date:        *rt.Date,
		Date2:       rt.Date2,
		Description: *rt.Description,
		Status:      status,
		Code:        rt.Code,
		Comment:     rt.Comment,
		Span:        decodeSpan(rt.SourcePos),
		Tags:        decodeTags(rt.Tags),
	}

	for pi, rp := range rt.Postings {
		posting, err := decodePosting(rp)
		if err != nil {
			return ledger.Transaction{}, fmt.Errorf("posting %d: %w", pi, err)
		}
		txn.Postings = append(txn.Postings, posting)
	}
	return txn, nil
}

func decodePosting(rp jsonPosting) (ledger.Posting, error) {
	if rp.Account == nil {
		return ledger.Posting{}, fmt.Errorf("missing paccount")
	}
	status, err := decodeStatus(rp.Status)
	if err != nil {
		return ledger.Posting{}, err
	}

	posting := ledger.Posting{
		Account: *rp.Account,
		Comment: rp.Comment,
		Status:  status,
	}
	for ai, ra := range rp.Amounts {
		amount, err := decodeAmount(ra)
		if err != nil {
			return ledger.Posting{}, fmt.Errorf("amount %d: %w", ai, err)
		}
		posting.Amounts = append(posting.Amounts, amount)
	}
	return posting, nil
}

func decodeAmount(ra jsonAmount) (ledger.Amount, error) {
	if ra.Commodity == nil {
		return ledger.Amount{}, fmt.Errorf("missing acommodity")
	}
	if ra.Quantity == nil || ra.Quantity.DecimalMantissa == nil || ra.Quantity.DecimalPlaces == nil {
		return ledger.Amount{}, fmt.Errorf("missing aquantity")
	}

	amount := ledger.Amount{
		Commodity: *ra.Commodity,
		Quantity:  decimal.New(*ra.Quantity.DecimalMantissa, -*ra.Quantity.DecimalPlaces),
		Style:     decodeStyle(ra.Style),
	}

	if ra.Cost != nil && ra.Cost.Contents != nil {
		cost, err := decodeAmount(*ra.Cost.Contents)
		if err != nil {
			return ledger.Amount{}, fmt.Errorf("acost: %w", err)
		}
		switch ra.Cost.Tag {
		case "UnitCost":
			// Per-unit prices are converted to the total paid so the rest
			// of the engine only ever deals in whole-lot costs.
			cost.Quantity = cost.Quantity.Mul(amount.Quantity).Abs()
		case "TotalCost":
		default:
			return ledger.Amount{}, fmt.Errorf("unknown acost tag %q", ra.Cost.Tag)
		}
		amount.Cost = &cost
	}
	return amount, nil
}

func decodeStyle(rs *jsonStyle) ledger.AmountStyle {
	style := ledger.DefaultStyle()
	if rs == nil {
		return style
	}

	if rs.CommoditySide == string(ledger.SideRight) {
		style.CommoditySide = ledger.SideRight
	}
	style.CommoditySpaced = rs.CommoditySpaced
	if rs.DecimalMark != "" {
		style.DecimalMark = rs.DecimalMark
	}

	if mark, sizes, ok := decodeDigitGroups(rs.DigitGroups); ok {
		style.DigitGroupMark = mark
		style.DigitGroupSizes = sizes
	}
	if p, ok := decodePrecision(rs.Precision); ok {
		style.Precision = p
	}
	return style
}

// decodeDigitGroups reads the [separator, sizes] pair hledger emits when a
// commodity uses digit grouping. Absent or null means no grouping.
func decodeDigitGroups(raw json.RawMessage) (string, []int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil, false
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return "", nil, false
	}
	var mark string
	var sizes []int
	if err := json.Unmarshal(pair[0], &mark); err != nil {
		return "", nil, false
	}
	if err := json.Unmarshal(pair[1], &sizes); err != nil {
		return "", nil, false
	}
	return mark, sizes, true
}

// decodePrecision reads asprecision, which is a plain integer for an exact
// precision and an object for "natural precision". Only the integer form is
// usable; anything else keeps the default.
func decodePrecision(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var p int
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, false
	}
	return p, true
}

func decodeStatus(s string) (ledger.Status, error) {
	if s == "" {
		return ledger.StatusUnmarked, nil
	}
	status := ledger.Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// decodeSpan keeps the source span only when hledger reported both ends of
// it; anything else leaves the transaction unlocatable on disk.
func decodeSpan(pos []jsonSourcePos) *ledger.SourceSpan {
	if len(pos) != 2 {
		return nil
	}
	return &ledger.SourceSpan{
		Start: ledger.SourcePosition{File: pos[0].Name, Line: pos[0].Line, Column: pos[0].Column},
		End:   ledger.SourcePosition{File: pos[1].Name, Line: pos[1].Line, Column: pos[1].Column},
	}
}

func decodeTags(pairs [][]string) []string {
	if len(pairs) == 0 {
		return nil
	}
	tags := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		switch {
		case len(pair) == 0:
			continue
		case len(pair) == 1 || pair[1] == "":
			tags = append(tags, pair[0])
		default:
			tags = append(tags, pair[0]+":"+pair[1])
		}
	}
	return tags
}
