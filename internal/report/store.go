package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var ErrBadFilename = errors.New("report: invalid filename")

var filenameRe = regexp.MustCompile(`^cleaning_report_[0-9a-f]{12}\.txt$`)

// Store keeps finished report artifacts as plain text files in a single
// directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create reports dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Save(filename, content string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", filename, err)
	}
	return nil
}

// Path validates the filename against the artifact naming scheme and returns
// the absolute location inside the store. Anything that does not look like a
// generated report name is rejected, which also rules out path traversal.
func (s *Store) Path(filename string) (string, error) {
	if !filenameRe.MatchString(filename) {
		return "", ErrBadFilename
	}
	return filepath.Join(s.dir, filename), nil
}
