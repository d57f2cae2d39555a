// Package export writes model data out of lamina: plain text files, G-code
// for milling paths, and DXF contours read back in as plate outlines.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxIncrement bounds the names tried by an incremental write: the plain
// name and then suffixes _1 to _99.
const MaxIncrement = 100

// ErrNoFreeName is returned when every incremental suffix is taken.
var ErrNoFreeName = errors.New("export: no free file name")

// now is replaced in tests.
var now = time.Now

// TextOptions configures WriteText. Extension defaults to "txt".
type TextOptions struct {
	Folder    string
	Name      string
	Extension string
	Content   string
	// Dated prefixes the file name with the current date (YYYY-MM-DD_).
	Dated bool
	// Incremental never overwrites: when the name is taken, _1, _2, ...
	// are tried, MaxIncrement names in all.
	Incremental bool
}

// WriteText writes Content and returns the path written. Warnings report
// non-fatal conditions, such as a file that ended up empty.
func WriteText(opts TextOptions) (string, []string, error) {
	if opts.Folder == "" || opts.Name == "" {
		return "", nil, fmt.Errorf("export: folder and name are required")
	}
	ext := strings.TrimPrefix(opts.Extension, ".")
	if ext == "" {
		ext = "txt"
	}
	base := opts.Name
	if opts.Dated {
		base = now().Format("2006-01-02") + "_" + base
	}
	if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
		return "", nil, fmt.Errorf("export: %w", err)
	}

	path := filepath.Join(opts.Folder, base+"."+ext)
	if opts.Incremental {
		var err error
		if path, err = freePath(opts.Folder, base, ext); err != nil {
			return "", nil, err
		}
	}

	if err := os.WriteFile(path, []byte(opts.Content), 0o644); err != nil {
		return "", nil, fmt.Errorf("export: %w", err)
	}
	var warnings []string
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		warnings = append(warnings, fmt.Sprintf("%s was written with 0 bytes", path))
	}
	return path, warnings, nil
}

// freePath returns the first of base.ext, base_1.ext ... that does not exist
// yet, giving up after MaxIncrement names.
func freePath(folder, base, ext string) (string, error) {
	for i := 0; i < MaxIncrement; i++ {
		name := base
		if i > 0 {
			name += "_" + strconv.Itoa(i)
		}
		p := filepath.Join(folder, name+"."+ext)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p, nil
		} else if err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
	}
	return "", fmt.Errorf("%w: %s.%s and %d numbered variants exist", ErrNoFreeName, base, ext, MaxIncrement-1)
}
