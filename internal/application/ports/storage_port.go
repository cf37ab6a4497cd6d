package ports

import "context"

// BlobStore puerto de salida para el almacenamiento de archivos (bucket + ruta).
type BlobStore interface {
	// PutBlob sube (o reemplaza) el archivo.
	PutBlob(ctx context.Context, bucket, path string, data []byte, contentType string) error
	DeleteBlobs(ctx context.Context, bucket string, paths []string) error
	// PublicURL no hace llamadas remotas.
	PublicURL(bucket, path string) string
}
