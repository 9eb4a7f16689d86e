package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// InputReader streams repository entries from a repos file.
type InputReader interface {
	Read(path string, handle func(line string) error) error
}

type fileInputReader struct{}

// NewFileInputReader creates a reader for repos files: one repository per
// line, # starts a comment, and repeated entries are reported once.
func NewFileInputReader() InputReader {
	return &fileInputReader{}
}

func (r *fileInputReader) Read(path string, handle func(line string) error) (err error) {
	_ = r

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open repos file %q: %w", path, err)
	}
	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close repos file %q: %w", path, closeErr)
		}
	}()

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		entry := repoEntry(scanner.Text())
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true

		if handleErr := handle(entry); handleErr != nil {
			return fmt.Errorf("process repos file line %d %q: %w", lineNo, entry, handleErr)
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return fmt.Errorf("scan repos file %q: %w", path, scanErr)
	}
	return nil
}

// repoEntry strips comments and surrounding space from one repos file line.
func repoEntry(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
