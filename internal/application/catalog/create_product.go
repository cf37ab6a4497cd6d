package catalog

import (
	"context"
	"fmt"

	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/application/saga"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/catalog"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
)

// CreateProduct crea el producto compuesto:
//
//	validar → fila raíz → subir imágenes → filas de imágenes → categorías → leer vista compuesta
//
// Si un paso dependiente falla se compensa (se borra el producto y sus archivos) y el
// producto nunca queda visible sin imágenes o sin categorías.
//
// Las llamadas remotas corren con un contexto desacoplado de la cancelación para que
// ningún paso despachado quede a medias; la cancelación se revisa entre pasos.
func (b *ProductBuilder) CreateProduct(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := catalog.NormalizeText(in.Name)
	categoryIDs := cleanIDs(in.CategoryIDs)
	if err := catalog.ValidateProduct(catalog.ProductDraft{
		Name:          name,
		Price:         in.Price,
		Stock:         in.Stock,
		ImageCount:    len(in.Images),
		CategoryCount: catalog.CountDistinct(categoryIDs),
	}); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	work := context.WithoutCancel(ctx)
	comp := saga.NewCompensator(b.log, "create_product")

	// 1. Fila raíz
	root, err := b.products.Insert(work, &entity.Product{
		ColmadoID:   in.ColmadoID,
		Name:        name,
		Description: catalog.NormalizeText(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	productID := root.ID
	comp.Record("insert_product", func(ctx context.Context) error {
		return b.products.Delete(ctx, productID)
	})
	if err := ctx.Err(); err != nil {
		return nil, b.abort(ctx, comp, productID, err)
	}

	// 2. Imágenes: cada una con su índice antes de despachar
	jobs := make([]uploadJob, len(in.Images))
	for i, img := range in.Images {
		jobs[i] = uploadJob{index: i, path: fmt.Sprintf("%s/image_%d.jpg", productID, i), file: img}
	}
	urls, paths := succeeded(b.uploadImages(work, productID, jobs))
	if len(paths) > 0 {
		comp.Record("upload_images", func(ctx context.Context) error {
			return b.blobs.DeleteBlobs(ctx, b.cfg.Bucket, paths)
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, b.abort(ctx, comp, productID, err)
	}
	if len(urls) == 0 {
		comp.Compensate(ctx)
		b.log.Error().Str("product_id", productID).Int("requested", len(jobs)).Msg("ninguna imagen se subió, producto revertido")
		return nil, domain.ErrImageUploadFailed
	}

	// 3. Filas de imágenes: orden compacto, principal en 0
	images := entity.BuildImageSet(productID, urls)
	if err := b.images.InsertMany(work, images); err != nil {
		comp.Compensate(ctx)
		b.log.Error().Err(err).Str("product_id", productID).Msg("registro de imágenes fallido, producto revertido")
		return nil, domain.Wrap(domain.ErrImageAssignmentFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, b.abort(ctx, comp, productID, err)
	}

	// 4. Categorías: compensación obligatoria
	assocs := entity.BuildCategorySet(productID, categoryIDs)
	if err := b.categories.InsertMany(work, assocs); err != nil {
		comp.Compensate(ctx)
		b.log.Error().Err(err).Str("product_id", productID).Msg("asignación de categorías fallida, producto revertido")
		return nil, domain.Wrap(domain.ErrCategoryAssignmentFailed, err)
	}

	if len(urls) < len(jobs) {
		b.log.Warn().Str("product_id", productID).
			Int("requested", len(jobs)).
			Int("uploaded", len(urls)).
			Msg("producto creado con menos imágenes de las solicitadas")
	}

	local := *root
	local.Images = images
	local.CategoryIDs = make([]string, 0, len(assocs))
	for _, a := range assocs {
		local.CategoryIDs = append(local.CategoryIDs, a.CategoryID)
	}

	// 5. Vista compuesta
	return toProductResponse(b.readComposed(ctx, &local)), nil
}

// abort compensa lo hecho hasta que se observó la cancelación.
func (b *ProductBuilder) abort(ctx context.Context, comp *saga.Compensator, productID string, cause error) error {
	comp.Compensate(ctx)
	b.log.Warn().Err(cause).Str("product_id", productID).Msg("alta de producto cancelada, pasos revertidos")
	return fmt.Errorf("crear producto cancelado: %w", cause)
}
