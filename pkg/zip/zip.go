package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Entry is one file of an archive.
type Entry struct {
	Filename string
	Data     []byte
}

// Archive packs entries into a zip stamped with modified. Duplicate or empty
// names are rejected.
func Archive(entries []Entry, modified time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Filename == "" {
			return nil, fmt.Errorf("zip: empty filename")
		}
		if _, dup := seen[e.Filename]; dup {
			return nil, fmt.Errorf("zip: duplicate entry %q", e.Filename)
		}
		seen[e.Filename] = struct{}{}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Filename, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fmt.Errorf("zip: create %q: %w", e.Filename, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip: write %q: %w", e.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
