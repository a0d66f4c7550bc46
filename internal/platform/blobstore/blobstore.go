// Package blobstore stores treatment attachments. The saga uploads pending
// files after the treatment row is saved; an upload failure is advisory and
// never unwinds the treatment.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed attachment size in bytes (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// BlobMetadata describes a stored attachment.
type BlobMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the file storage collaborator. Upload returns the public URL of
// the stored file.
type Store interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

// MemoryStore is a thread-safe in-memory Store for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*BlobMetadata // keyed by content hash
	data  map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]*BlobMetadata),
		data:  make(map[string][]byte),
	}
}

// Upload stores the file and returns its URL. Re-uploading identical content
// returns the existing URL rather than storing a second copy.
func (s *MemoryStore) Upload(_ context.Context, fileName, contentType string, data []byte) (string, error) {
	if fileName == "" {
		return "", ErrMissingFileName
	}
	if int64(len(data)) > MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.blobs[hash]; ok {
		return existing.URL, nil
	}

	meta := &BlobMetadata{
		ID:          hash[:12],
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        hash,
		URL:         "memblob://" + hash[:12] + "/" + fileName,
		CreatedAt:   time.Now().UTC(),
	}
	s.blobs[hash] = meta
	buf := make([]byte, len(data))
	copy(buf, data)
	s.data[hash] = buf

	return meta.URL, nil
}

// Get returns the metadata and content for a stored hash.
func (s *MemoryStore) Get(hash string) (*BlobMetadata, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.blobs[hash]
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	return meta, s.data[hash], nil
}

// Len reports the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
