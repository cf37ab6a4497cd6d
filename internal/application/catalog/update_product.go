package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/catalog"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
)

// UpdateProduct reemplaza campos raíz, imágenes y categorías (reemplazo completo, no diff).
//
// Una vez actualizada la fila raíz no hay compensación: si imágenes o categorías fallan
// se devuelve ErrUpdateIncomplete en lugar de ocultar el estado parcial. Un producto de
// otro colmado responde ErrNotFound sin escribir nada. Desde la actualización raíz
// el flujo corre hasta el final aunque se cancele ctx.
func (b *ProductBuilder) UpdateProduct(ctx context.Context, colmadoID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	name := catalog.NormalizeText(in.Name)
	kept := cleanIDs(in.KeptImageURLs)
	categoryIDs := cleanIDs(in.CategoryIDs)
	if err := catalog.ValidateProduct(catalog.ProductDraft{
		Name:          name,
		Price:         in.Price,
		Stock:         in.Stock,
		ImageCount:    len(kept) + len(in.NewImages),
		CategoryCount: catalog.CountDistinct(categoryIDs),
	}); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := b.owned(ctx, colmadoID, id)
	if err != nil {
		return nil, err
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	root := &entity.Product{
		ID:          id,
		ColmadoID:   current.ColmadoID,
		CreatedAt:   current.CreatedAt,
		Name:        name,
		Description: catalog.NormalizeText(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    isActive,
	}

	work := context.WithoutCancel(ctx)
	if err := b.products.Update(work, root); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}

	// Best-effort: si falla, la inserción posterior lo deja en evidencia.
	if err := b.images.DeleteByProduct(work, id); err != nil {
		b.log.Warn().Err(err).Str("product_id", id).Msg("no se pudieron borrar las imágenes anteriores")
	}

	// Rutas con marca de tiempo: no pisan archivos de imágenes conservadas.
	stamp := b.cfg.Now().UnixMilli()
	jobs := make([]uploadJob, len(in.NewImages))
	for i, img := range in.NewImages {
		jobs[i] = uploadJob{index: i, path: fmt.Sprintf("%s/image_%d_%d.jpg", id, stamp, i), file: img}
	}
	uploaded, _ := succeeded(b.uploadImages(work, id, jobs))

	urls := append(append([]string{}, kept...), uploaded...)
	var problems []error
	var images []entity.ProductImage
	if len(urls) == 0 {
		problems = append(problems, domain.ErrImageUploadFailed)
	} else {
		images = entity.BuildImageSet(id, urls)
		if err := b.images.InsertMany(work, images); err != nil {
			problems = append(problems, fmt.Errorf("imágenes: %w", err))
			images = nil
		}
	}

	// Categorías: borrar todo y volver a insertar. Si el borrado falla no se inserta,
	// así nunca queda la unión del conjunto viejo y el nuevo.
	assocs := entity.BuildCategorySet(id, categoryIDs)
	if err := b.categories.DeleteByProduct(work, id); err != nil {
		problems = append(problems, fmt.Errorf("borrar categorías: %w", err))
	} else if err := b.categories.InsertMany(work, assocs); err != nil {
		problems = append(problems, fmt.Errorf("categorías: %w", err))
	}

	if len(problems) > 0 {
		err := domain.Wrap(domain.ErrUpdateIncomplete, errors.Join(problems...))
		b.log.Error().Err(err).Str("product_id", id).Msg("actualización de producto incompleta")
		return nil, err
	}

	local := *root
	local.Images = images
	for _, a := range assocs {
		local.CategoryIDs = append(local.CategoryIDs, a.CategoryID)
	}
	return toProductResponse(b.readComposed(ctx, &local)), nil
}
