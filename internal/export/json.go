// Package export writes the per-receipt inspection dumps: the raw
// extraction field map, serialized as-is so a human can compare what the
// extraction service saw against what got ingested. These documents are a
// side channel and never read back by the pipeline.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ricevute/internal/core"
)

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write dumps one raw receipt as <dir>/<name>_output.json, where name is
// derived from the source the extraction service reported (an image path,
// a message id). Returns the path written.
func (w *Writer) Write(source string, raw core.RawReceipt) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(w.dir, exportName(source))

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal receipt: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

func exportName(source string) string {
	base := filepath.Base(source)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "receipt"
	}
	return base + "_output.json"
}
