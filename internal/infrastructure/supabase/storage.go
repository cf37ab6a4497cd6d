package supabase

import (
	"bytes"
	"context"
	"net/http"

	"github.com/jhoicas/colmado-api/internal/application/ports"
)

var _ ports.BlobStore = (*Storage)(nil)

// Storage adaptador de Supabase Storage.
type Storage struct {
	c *Client
}

func NewStorage(c *Client) *Storage {
	return &Storage{c: c}
}

// PutBlob sube el archivo con x-upsert: una ruta existente se reemplaza.
func (s *Storage) PutBlob(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	return s.c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/storage/v1/object/" + escapePath(bucket) + "/" + escapePath(path),
		body:        bytes.NewReader(data),
		contentType: contentType,
		headers:     map[string]string{"x-upsert": "true"},
	}, nil)
}

// DeleteBlobs borra varias rutas de un bucket en una sola llamada.
func (s *Storage) DeleteBlobs(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	body, err := jsonBody(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	return s.c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/storage/v1/object/" + escapePath(bucket),
		body:        body,
		contentType: "application/json",
	}, nil)
}

// PublicURL URL pública del archivo (bucket público).
func (s *Storage) PublicURL(bucket, path string) string {
	return s.c.baseURL + "/storage/v1/object/public/" + escapePath(bucket) + "/" + escapePath(path)
}
