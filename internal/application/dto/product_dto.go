package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto con sus imágenes y categorías.
type CreateProductRequest struct {
	ColmadoID   string          `json:"colmado_id" validate:"required"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryIDs []string        `json:"category_ids" validate:"dive,required"`
	Images      []ImageFile     `json:"-"`
}

// UpdateProductRequest reemplazo completo: campos raíz, imágenes (conservadas + nuevas) y categorías.
type UpdateProductRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description" validate:"max=2000"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	IsActive      *bool           `json:"is_active"` // nil = activo
	KeptImageURLs []string        `json:"kept_image_urls" validate:"dive,url"`
	CategoryIDs   []string        `json:"category_ids" validate:"dive,required"`
	NewImages     []ImageFile     `json:"-"`
}

// ProductImageResponse imagen en la salida.
type ProductImageResponse struct {
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsPrimary    bool   `json:"is_primary"`
}

// ProductResponse salida de un producto compuesto.
type ProductResponse struct {
	ID          string                 `json:"id"`
	ColmadoID   string                 `json:"colmado_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Price       decimal.Decimal        `json:"price"`
	Stock       int                    `json:"stock"`
	IsActive    bool                   `json:"is_active"`
	CreatedAt   time.Time              `json:"created_at"`
	Images      []ProductImageResponse `json:"images"`
	CategoryIDs []string               `json:"category_ids"`
}
