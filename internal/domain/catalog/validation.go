// Package catalog contiene las reglas del catálogo que se verifican antes de cualquier escritura remota.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
)

// ProductDraft lo que el gate necesita saber de un alta o actualización.
// ImageCount es el total final: imágenes conservadas + nuevas.
type ProductDraft struct {
	Name          string
	Price         decimal.Decimal
	Stock         int
	ImageCount    int
	CategoryCount int
}

// ValidateProduct rechaza el borrador sin efectos secundarios.
func ValidateProduct(d ProductDraft) error {
	if d.ImageCount < entity.MinProductImages || d.ImageCount > entity.MaxProductImages {
		return domain.ErrImageCountInvalid
	}
	if d.CategoryCount == 0 {
		return domain.ErrCategoryCountMissing
	}
	if !d.Price.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidPrice
	}
	if d.Stock < 0 {
		return domain.ErrInvalidStock
	}
	if NormalizeText(d.Name) == "" {
		return domain.ErrNameRequired
	}
	return nil
}

// NormalizeText recorta espacios y normaliza a NFC ("café" escrito con tilde combinada
// queda igual al precompuesto).
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CountDistinct cuenta ids no vacíos sin repetir.
func CountDistinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}
	return len(seen)
}
