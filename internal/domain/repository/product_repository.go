package repository

import (
	"context"

	"github.com/jhoicas/colmado-api/internal/domain/entity"
)

// ProductRepository puerto de persistencia de la fila raíz de Product y de su vista compuesta.
type ProductRepository interface {
	// Insert persiste la fila raíz y devuelve la fila con ID y CreatedAt asignados por el backend.
	Insert(ctx context.Context, product *entity.Product) (*entity.Product, error)
	// Update reemplaza los campos raíz. ErrNotFound si la fila no existe.
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	// GetComposed lee producto + imágenes + categorías. (nil, nil) si todavía no es visible.
	GetComposed(ctx context.Context, id string) (*entity.Product, error)
}

// ProductImageRepository puerto de la tabla de imágenes.
type ProductImageRepository interface {
	InsertMany(ctx context.Context, images []entity.ProductImage) error
	DeleteByProduct(ctx context.Context, productID string) error
}

// ProductCategoryRepository puerto de la tabla de asociaciones producto-categoría.
type ProductCategoryRepository interface {
	InsertMany(ctx context.Context, assocs []entity.ProductCategoryAssoc) error
	DeleteByProduct(ctx context.Context, productID string) error
}
