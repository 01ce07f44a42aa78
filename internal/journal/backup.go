package journal

import (
	"fmt"
	"os"
)

// backupSuffix is appended to the journal path for the sibling backup that
// exists only for the duration of one mutation.
const backupSuffix = ".bak"

// BackupPath returns where a mutation parks its temporary backup of file.
func BackupPath(file string) string {
	return file + backupSuffix
}

// backupFile is a point-in-time copy of the journal. It lives exactly as
// long as one mutation: created before the file is touched, deleted when
// the mutation commits or after it restores.
type backupFile struct {
	original string
	path     string
}

func newBackup(file string) (*backupFile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to back up journal: %w", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("failed to back up journal: %w", err)
	}

	path := BackupPath(file)
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to back up journal: %w", err)
	}
	return &backupFile{original: file, path: path}, nil
}

// restore copies the backup's content back over the original.
func (b *backupFile) restore() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return err
	}
	info, err := os.Stat(b.path)
	if err != nil {
		return err
	}
	return os.WriteFile(b.original, data, info.Mode().Perm())
}

// discard removes the backup file. Best effort: a leftover backup is
// harmless next to a correct journal, a missing one is not worth failing
// a successful mutation over.
func (b *backupFile) discard() {
	_ = os.Remove(b.path)
}
