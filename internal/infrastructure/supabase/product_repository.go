package supabase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository         = (*ProductRepository)(nil)
	_ repository.ProductImageRepository    = (*ProductImageRepository)(nil)
	_ repository.ProductCategoryRepository = (*ProductCategoryRepository)(nil)
)

const (
	tableProducts          = "products"
	tableProductImages     = "product_images"
	tableProductCategories = "product_categories"

	composedProductSelect = "*,product_images(url,display_order,is_primary),product_categories(category_id)"
)

type productRow struct {
	ID          string          `json:"id,omitempty"`
	ColmadoID   string          `json:"colmado_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

type productImageRow struct {
	ProductID    string `json:"product_id,omitempty"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsPrimary    bool   `json:"is_primary"`
}

type productCategoryRow struct {
	ProductID  string `json:"product_id,omitempty"`
	CategoryID string `json:"category_id"`
}

// composedProductRow fila de products con sus recursos embebidos.
type composedProductRow struct {
	productRow
	Images     []productImageRow    `json:"product_images"`
	Categories []productCategoryRow `json:"product_categories"`
}

func (r productRow) toEntity() *entity.Product {
	p := &entity.Product{
		ID:          r.ID,
		ColmadoID:   r.ColmadoID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	return p
}

// ProductRepository tabla products vía PostgREST.
type ProductRepository struct{ c *Client }

func NewProductRepository(c *Client) *ProductRepository { return &ProductRepository{c: c} }

func (r *ProductRepository) Insert(ctx context.Context, p *entity.Product) (*entity.Product, error) {
	var rows []productRow
	err := r.c.Insert(ctx, tableProducts, productRow{
		ColmadoID:   p.ColmadoID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toEntity(), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	var rows []productRow
	err := r.c.Update(ctx, tableProducts, []Filter{Eq("id", p.ID)}, map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"is_active":   p.IsActive,
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, tableProducts, []Filter{Eq("id", id)})
}

// GetComposed lee el producto con imágenes y categorías embebidas. (nil, nil) si no hay fila.
func (r *ProductRepository) GetComposed(ctx context.Context, id string) (*entity.Product, error) {
	var rows []composedProductRow
	err := r.c.Select(ctx, tableProducts, Query{
		Select:  composedProductSelect,
		Filters: []Filter{Eq("id", id)},
		Limit:   1,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	p := row.productRow.toEntity()
	for _, img := range row.Images {
		p.Images = append(p.Images, entity.ProductImage{
			ProductID:    p.ID,
			URL:          img.URL,
			DisplayOrder: img.DisplayOrder,
			IsPrimary:    img.IsPrimary,
		})
	}
	sort.Slice(p.Images, func(i, j int) bool { return p.Images[i].DisplayOrder < p.Images[j].DisplayOrder })
	for _, c := range row.Categories {
		p.CategoryIDs = append(p.CategoryIDs, c.CategoryID)
	}
	return p, nil
}

// ProductImageRepository tabla product_images.
type ProductImageRepository struct{ c *Client }

func NewProductImageRepository(c *Client) *ProductImageRepository {
	return &ProductImageRepository{c: c}
}

// InsertMany una sola llamada con todas las filas (PostgREST la ejecuta en una transacción).
func (r *ProductImageRepository) InsertMany(ctx context.Context, images []entity.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	rows := make([]productImageRow, len(images))
	for i, img := range images {
		rows[i] = productImageRow{
			ProductID:    img.ProductID,
			URL:          img.URL,
			DisplayOrder: img.DisplayOrder,
			IsPrimary:    img.IsPrimary,
		}
	}
	return r.c.Insert(ctx, tableProductImages, rows, nil)
}

func (r *ProductImageRepository) DeleteByProduct(ctx context.Context, productID string) error {
	return r.c.Delete(ctx, tableProductImages, []Filter{Eq("product_id", productID)})
}

// ProductCategoryRepository tabla product_categories.
type ProductCategoryRepository struct{ c *Client }

func NewProductCategoryRepository(c *Client) *ProductCategoryRepository {
	return &ProductCategoryRepository{c: c}
}

func (r *ProductCategoryRepository) InsertMany(ctx context.Context, assocs []entity.ProductCategoryAssoc) error {
	if len(assocs) == 0 {
		return nil
	}
	rows := make([]productCategoryRow, len(assocs))
	for i, a := range assocs {
		rows[i] = productCategoryRow{ProductID: a.ProductID, CategoryID: a.CategoryID}
	}
	return r.c.Insert(ctx, tableProductCategories, rows, nil)
}

func (r *ProductCategoryRepository) DeleteByProduct(ctx context.Context, productID string) error {
	return r.c.Delete(ctx, tableProductCategories, []Filter{Eq("product_id", productID)})
}
