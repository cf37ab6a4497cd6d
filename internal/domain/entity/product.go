package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Límites del conjunto de imágenes de un producto.
const (
	MinProductImages = 1
	MaxProductImages = 5
)

// Product producto del catálogo de un colmado. Compuesto por la fila raíz,
// sus imágenes ordenadas y sus categorías.
type Product struct {
	ID          string
	ColmadoID   string
	Name        string
	Description string // opcional
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
	Images      []ProductImage
	CategoryIDs []string
}

// ProductImage imagen de un producto. La principal siempre está en el orden 0.
type ProductImage struct {
	ProductID    string
	URL          string
	DisplayOrder int
	IsPrimary    bool
}

// ProductCategoryAssoc par único (producto, categoría).
type ProductCategoryAssoc struct {
	ProductID  string
	CategoryID string
}

// PrimaryImage devuelve la imagen principal o nil.
func (p *Product) PrimaryImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return nil
}

// BuildImageSet arma las filas de imágenes en el orden recibido:
// display_order consecutivo desde 0 y principal solo la primera.
func BuildImageSet(productID string, urls []string) []ProductImage {
	images := make([]ProductImage, 0, len(urls))
	for i, u := range urls {
		images = append(images, ProductImage{
			ProductID:    productID,
			URL:          u,
			DisplayOrder: i,
			IsPrimary:    i == 0,
		})
	}
	return images
}

// BuildCategorySet arma las asociaciones sin duplicados, conservando el orden.
func BuildCategorySet(productID string, categoryIDs []string) []ProductCategoryAssoc {
	seen := make(map[string]struct{}, len(categoryIDs))
	out := make([]ProductCategoryAssoc, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, ProductCategoryAssoc{ProductID: productID, CategoryID: id})
	}
	return out
}
