package catalog_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/catalog"
)

func validDraft() catalog.ProductDraft {
	return catalog.ProductDraft{
		Name:          "Coca Cola",
		Price:         decimal.NewFromFloat(25.0),
		Stock:         10,
		ImageCount:    1,
		CategoryCount: 1,
	}
}

func TestValidateProduct_Valido(t *testing.T) {
	assert.NoError(t, catalog.ValidateProduct(validDraft()))

	d := validDraft()
	d.ImageCount = 5
	d.Stock = 0
	assert.NoError(t, catalog.ValidateProduct(d), "5 imágenes y stock 0 son válidos")
}

func TestValidateProduct_Rechazos(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*catalog.ProductDraft)
		want   error
	}{
		{"sin imágenes", func(d *catalog.ProductDraft) { d.ImageCount = 0 }, domain.ErrImageCountInvalid},
		{"seis imágenes", func(d *catalog.ProductDraft) { d.ImageCount = 6 }, domain.ErrImageCountInvalid},
		{"sin categorías", func(d *catalog.ProductDraft) { d.CategoryCount = 0 }, domain.ErrCategoryCountMissing},
		{"precio cero", func(d *catalog.ProductDraft) { d.Price = decimal.Zero }, domain.ErrInvalidPrice},
		{"precio negativo", func(d *catalog.ProductDraft) { d.Price = decimal.NewFromInt(-3) }, domain.ErrInvalidPrice},
		{"stock negativo", func(d *catalog.ProductDraft) { d.Stock = -1 }, domain.ErrInvalidStock},
		{"nombre en blanco", func(d *catalog.ProductDraft) { d.Name = "   " }, domain.ErrNameRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			err := catalog.ValidateProduct(d)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, domain.ErrValidation, "todo rechazo del gate es de validación")
		})
	}
}

func TestValidateProduct_ConteoDeImagenesTienePrioridad(t *testing.T) {
	d := validDraft()
	d.ImageCount = 0
	d.CategoryCount = 0
	d.Price = decimal.Zero
	assert.ErrorIs(t, catalog.ValidateProduct(d), domain.ErrImageCountInvalid)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Caf\u00e9", catalog.NormalizeText("  Cafe\u0301 "), "tilde combinada se compone")
	assert.Equal(t, "", catalog.NormalizeText("\t\n"))
}

func TestCountDistinct(t *testing.T) {
	assert.Equal(t, 2, catalog.CountDistinct([]string{"bebidas", "snacks", "bebidas", " "}))
	assert.Equal(t, 0, catalog.CountDistinct(nil))
}
