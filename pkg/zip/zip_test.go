package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchive(t *testing.T) {
	data, err := Archive([]Entry{
		{Filename: "youtube-thumbnail.png", Data: []byte("png")},
		{Filename: "scene.json", Data: []byte(`{"elements":[]}`)},
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Archive error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "youtube-thumbnail.png" {
		t.Fatalf("unexpected entries: %d", len(zr.File))
	}
	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"elements":[]}` {
		t.Fatalf("entry body = %q", body)
	}
}

func TestArchiveRejectsDuplicates(t *testing.T) {
	_, err := Archive([]Entry{{Filename: "a"}, {Filename: "a"}}, time.Now())
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := Archive([]Entry{{Filename: ""}}, time.Now()); err == nil {
		t.Fatalf("expected empty name error")
	}
}
