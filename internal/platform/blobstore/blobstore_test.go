package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryStore_Upload(t *testing.T) {
	s := NewMemoryStore()

	url, err := s.Upload(context.Background(), "xray.png", "image/png", []byte("fake png bytes"))
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if !strings.HasSuffix(url, "/xray.png") {
		t.Errorf("expected url ending in file name, got %q", url)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 blob, got %d", s.Len())
	}
}

func TestMemoryStore_DedupesIdenticalContent(t *testing.T) {
	s := NewMemoryStore()

	url1, err := s.Upload(context.Background(), "a.pdf", "application/pdf", []byte("same bytes"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	url2, err := s.Upload(context.Background(), "b.pdf", "application/pdf", []byte("same bytes"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if url1 != url2 {
		t.Errorf("expected identical content to share a URL: %q vs %q", url1, url2)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 stored blob, got %d", s.Len())
	}
}

func TestMemoryStore_RejectsMissingName(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Upload(context.Background(), "", "image/png", []byte("x")); !errors.Is(err, ErrMissingFileName) {
		t.Errorf("expected ErrMissingFileName, got %v", err)
	}
}

func TestMemoryStore_RejectsOversized(t *testing.T) {
	s := NewMemoryStore()
	big := make([]byte, MaxFileSize+1)
	if _, err := s.Upload(context.Background(), "huge.bin", "application/octet-stream", big); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestMemoryStore_Get(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Upload(context.Background(), "note.txt", "text/plain", []byte("hello")); err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	var hash string
	for h := range s.blobs {
		hash = h
	}
	meta, data, err := s.Get(hash)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if meta.FileName != "note.txt" || string(data) != "hello" {
		t.Errorf("unexpected blob: %+v %q", meta, data)
	}

	if _, _, err := s.Get("missing"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}
