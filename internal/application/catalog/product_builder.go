// Package catalog arma productos compuestos (fila raíz + imágenes + categorías) sobre un
// backend sin transacciones entre tablas.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/colmado-api/internal/application/consistency"
	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// ProductBuilderConfig parámetros del flujo.
type ProductBuilderConfig struct {
	Bucket            string
	Poller            consistency.Poller
	UploadConcurrency int
	Now               func() time.Time // nil = time.Now
}

// ProductBuilder orquesta alta, actualización y baja de productos compuestos.
// No guarda estado entre llamadas; cada ejecución arma su propia pila de compensación.
type ProductBuilder struct {
	products   repository.ProductRepository
	images     repository.ProductImageRepository
	categories repository.ProductCategoryRepository
	blobs      ports.BlobStore
	log        *logger.Logger
	cfg        ProductBuilderConfig
}

// NewProductBuilder construye el orquestador con sus puertos.
func NewProductBuilder(
	products repository.ProductRepository,
	images repository.ProductImageRepository,
	categories repository.ProductCategoryRepository,
	blobs ports.BlobStore,
	log *logger.Logger,
	cfg ProductBuilderConfig,
) *ProductBuilder {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.UploadConcurrency < 1 {
		cfg.UploadConcurrency = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ProductBuilder{
		products:   products,
		images:     images,
		categories: categories,
		blobs:      blobs,
		log:        log.Named("product_builder"),
		cfg:        cfg,
	}
}

// GetProduct lee el producto compuesto del colmado. Espera a que la vista tenga imágenes
// y categorías; si no llegan devuelve lo que esté guardado (por ejemplo tras una
// actualización incompleta). ErrNotFound si no existe o es de otro colmado.
func (b *ProductBuilder) GetProduct(ctx context.Context, colmadoID, id string) (*dto.ProductResponse, error) {
	p, err := consistency.Poll[entity.Product](ctx, b.cfg.Poller, b.fetchComplete(id))
	if errors.Is(err, domain.ErrNotYetVisible) {
		p, err = b.products.GetComposed(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if p == nil || p.ColmadoID != colmadoID {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(p), nil
}

// DeleteProduct elimina la fila raíz; imágenes y categorías las borra el backend en cascada.
func (b *ProductBuilder) DeleteProduct(ctx context.Context, colmadoID, id string) error {
	if _, err := b.owned(ctx, colmadoID, id); err != nil {
		return err
	}
	if err := b.products.Delete(ctx, id); err != nil {
		return err
	}
	b.log.Info().Str("product_id", id).Str("colmado_id", colmadoID).Msg("producto eliminado")
	return nil
}

// owned lee la fila raíz y comprueba que sea del colmado. ErrNotFound en otro caso.
func (b *ProductBuilder) owned(ctx context.Context, colmadoID, id string) (*entity.Product, error) {
	p, err := consistency.Poll[entity.Product](ctx, b.cfg.Poller, func(ctx context.Context) (*entity.Product, error) {
		return b.products.GetComposed(ctx, id)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, domain.ErrNotYetVisible) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("leer producto: %w", err)
	}
	if p.ColmadoID != colmadoID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// fetchComplete lectura para el poller: una fila sin imágenes o sin categorías
// cuenta como todavía no visible.
func (b *ProductBuilder) fetchComplete(id string) consistency.FetchFunc[entity.Product] {
	return func(ctx context.Context) (*entity.Product, error) {
		p, err := b.products.GetComposed(ctx, id)
		if err != nil || p == nil {
			return nil, err
		}
		if len(p.Images) == 0 || len(p.CategoryIDs) == 0 {
			return nil, nil
		}
		return p, nil
	}
}

// readComposed espera a que la vista compuesta refleje las escrituras. Si no llega a
// tiempo devuelve la composición local: las escrituras ya son durables.
func (b *ProductBuilder) readComposed(ctx context.Context, local *entity.Product) *entity.Product {
	p, err := consistency.Poll[entity.Product](ctx, b.cfg.Poller, b.fetchComplete(local.ID))
	switch {
	case err == nil:
		return p
	case errors.Is(err, domain.ErrNotYetVisible):
		b.log.Debug().Str("product_id", local.ID).Msg("vista compuesta aún no visible, se usa composición local")
	default:
		b.log.Warn().Err(err).Str("product_id", local.ID).Msg("lectura de vista compuesta fallida, se usa composición local")
	}
	return local
}

// cleanIDs recorta y descarta ids vacíos.
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	images := make([]entity.ProductImage, len(p.Images))
	copy(images, p.Images)
	sort.SliceStable(images, func(i, j int) bool { return images[i].DisplayOrder < images[j].DisplayOrder })

	out := &dto.ProductResponse{
		ID:          p.ID,
		ColmadoID:   p.ColmadoID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		Images:      make([]dto.ProductImageResponse, 0, len(images)),
		CategoryIDs: append([]string{}, p.CategoryIDs...),
	}
	for _, img := range images {
		out.Images = append(out.Images, dto.ProductImageResponse{
			URL:          img.URL,
			DisplayOrder: img.DisplayOrder,
			IsPrimary:    img.IsPrimary,
		})
	}
	return out
}
