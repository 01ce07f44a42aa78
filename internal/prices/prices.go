package prices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBinary is the pricehist executable looked up on PATH.
	DefaultBinary = "pricehist"

	// DefaultTimeout bounds one fetch; each ticker is its own call.
	DefaultTimeout = 30 * time.Second

	// CacheFilename is the market-price journal written into the cache
	// directory.
	CacheFilename = "prices.journal"
)

// ErrPricehistUnavailable means the pricehist binary could not be found.
// Prices are an optional feature, so callers usually degrade to running
// without market values instead of failing.
var ErrPricehistUnavailable = errors.New("pricehist not found")

// Runner executes one pricehist invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the real pricehist binary.
type ExecRunner struct {
	binary  string
	timeout time.Duration
}

// NewExecRunner returns an ExecRunner for the given binary and per-call
// timeout. Empty or zero arguments fall back to the defaults.
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{binary: binary, timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%w: install it with pipx install pricehist", ErrPricehistUnavailable)
	}
	return nil, fmt.Errorf("pricehist %s failed: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
}

// Cache maintains a journal of today's market prices, fetched from Yahoo
// Finance via pricehist and refreshed at most once per day. The cached
// file is handed to hledger as an extra journal so balances can be valued
// at market.
type Cache struct {
	path   string
	runner Runner
	logger *logrus.Logger
	today  func() time.Time
}

// NewCache returns a cache writing into dir.
func NewCache(dir string, runner Runner, logger *logrus.Logger) *Cache {
	return &Cache{
		path:   filepath.Join(dir, CacheFilename),
		runner: runner,
		logger: logger,
		today:  time.Now,
	}
}

// Path returns where the price journal lives.
func (c *Cache) Path() string {
	return c.path
}

// Fresh reports whether the cached prices were written today.
func (c *Cache) Fresh() bool {
	info, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	now := c.today()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !info.ModTime().Before(midnight)
}

// Refresh fetches today's price for every configured ticker and rewrites
// the cache. tickers maps a journal commodity to its Yahoo symbol, e.g.
// "XDWD" to "XDWD.DE". A ticker that fails to fetch is logged and skipped
// so one delisted symbol cannot take down the rest; a missing pricehist
// binary fails the whole refresh with ErrPricehistUnavailable.
func (c *Cache) Refresh(ctx context.Context, tickers map[string]string) error {
	day := c.today().Format("2006-01-02")

	commodities := make([]string, 0, len(tickers))
	for commodity := range tickers {
		commodities = append(commodities, commodity)
	}
	sort.Strings(commodities)

	var lines []string
	for _, commodity := range commodities {
		out, err := c.runner.Run(ctx,
			"fetch", "yahoo", tickers[commodity],
			"-s", day, "-e", day,
			"-o", "ledger", "--fmt-base", commodity)
		if err != nil {
			if errors.Is(err, ErrPricehistUnavailable) {
				return err
			}
			c.logger.WithError(err).WithField("commodity", commodity).Warn("Prices.Fetch.Skip")
			continue
		}
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "P ") {
				lines = append(lines, line)
			}
		}
	}

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create price cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write price cache: %w", err)
	}
	return nil
}

// File returns the path of a usable price journal, refreshing the cache
// first when it is stale. It returns "" when prices are effectively
// disabled: no tickers configured, or pricehist not installed.
func (c *Cache) File(ctx context.Context, tickers map[string]string) (string, error) {
	if len(tickers) == 0 {
		return "", nil
	}
	if !c.Fresh() {
		if err := c.Refresh(ctx, tickers); err != nil {
			if errors.Is(err, ErrPricehistUnavailable) {
				c.logger.WithError(err).Warn("Prices.Refresh.Unavailable")
				return "", nil
			}
			return "", err
		}
	}
	if _, err := os.Stat(c.path); err != nil {
		return "", nil
	}
	return c.path, nil
}
