package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/domain"
)

// uploadJob lleva su índice de destino desde antes del despacho; el orden en que
// terminan las subidas no altera el mapeo índice → URL.
type uploadJob struct {
	index int
	path  string
	file  dto.ImageFile
}

type uploadResult struct {
	index int
	path  string
	url   string
	err   error
}

// uploadImages sube en paralelo (acotado) y devuelve un resultado por job, en el orden de jobs.
// Solo retorna cuando todas las subidas despachadas terminaron.
func (b *ProductBuilder) uploadImages(ctx context.Context, productID string, jobs []uploadJob) []uploadResult {
	results := make([]uploadResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(b.cfg.UploadConcurrency)
	for i, job := range jobs {
		results[i] = uploadResult{index: job.index, path: job.path}
		g.Go(func() error {
			if err := b.blobs.PutBlob(ctx, b.cfg.Bucket, job.path, job.file.Data, job.file.ContentTypeOrDefault()); err != nil {
				results[i].err = domain.Wrap(domain.ErrPartialUpload, err)
				return nil
			}
			results[i].url = b.blobs.PublicURL(b.cfg.Bucket, job.path)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.err != nil {
			b.log.Warn().Err(r.err).
				Str("product_id", productID).
				Int("image_index", r.index).
				Str("path", r.path).
				Msg("subida de imagen fallida, se omite")
		}
	}
	return results
}

// succeeded devuelve URLs y rutas de las subidas exitosas, en orden de índice.
func succeeded(results []uploadResult) (urls, paths []string) {
	for _, r := range results {
		if r.err != nil {
			continue
		}
		urls = append(urls, r.url)
		paths = append(paths, r.path)
	}
	return urls, paths
}
