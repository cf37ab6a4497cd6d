package memory

import (
	"context"

	"github.com/jhoicas/colmado-api/internal/application/ports"
)

var _ ports.BlobStore = (*BlobStore)(nil)

// BlobStore buckets en memoria.
type BlobStore struct{ s *Store }

// Blobs adaptador de almacenamiento de archivos.
func (s *Store) Blobs() *BlobStore { return &BlobStore{s: s} }

func (b *BlobStore) PutBlob(_ context.Context, bucket, path string, data []byte, _ string) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPutBlob); err != nil {
		return err
	}
	if err := s.blobFaults[blobKey(bucket, path)]; err != nil {
		return err
	}
	s.blobs[blobKey(bucket, path)] = append([]byte{}, data...)
	return nil
}

func (b *BlobStore) DeleteBlobs(_ context.Context, bucket string, paths []string) error {
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteBlobs); err != nil {
		return err
	}
	for _, p := range paths {
		delete(s.blobs, blobKey(bucket, p))
	}
	return nil
}

func (b *BlobStore) PublicURL(bucket, path string) string {
	return b.s.baseURL + "/storage/v1/object/public/" + bucket + "/" + path
}
