package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository         = (*ProductRepo)(nil)
	_ repository.ProductImageRepository    = (*ProductImageRepo)(nil)
	_ repository.ProductCategoryRepository = (*ProductCategoryRepo)(nil)
)

// ProductRepo tabla products (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Insert persiste la fila raíz; id y created_at se generan aquí.
func (r *ProductRepo) Insert(ctx context.Context, p *entity.Product) (*entity.Product, error) {
	out := *p
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()
	out.Images = nil
	out.CategoryIDs = nil

	query := `
		INSERT INTO products (id, colmado_id, name, description, price, stock, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		out.ID, out.ColmadoID, out.Name, out.Description, out.Price, out.Stock, out.IsActive, out.CreatedAt,
	)
	if err != nil {
		return nil, classify("insert product", err)
	}
	return &out, nil
}

// Update modifica los campos raíz. ErrNotFound si el producto no existe.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, price = $4, stock = $5, is_active = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Stock, p.IsActive)
	if err != nil {
		return classify("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra la fila raíz; imágenes y categorías caen por ON DELETE CASCADE.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return classify("delete product", err)
}

// GetComposed lee raíz, imágenes y categorías. (nil, nil) si no existe.
func (r *ProductRepo) GetComposed(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	var description *string
	err := r.q.QueryRow(ctx, `
		SELECT id, colmado_id, name, description, price, stock, is_active, created_at
		FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.ColmadoID, &p.Name, &description, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product", err)
	}
	if description != nil {
		p.Description = *description
	}

	rows, err := r.q.Query(ctx, `
		SELECT url, display_order, is_primary FROM product_images
		WHERE product_id = $1 ORDER BY display_order`, id)
	if err != nil {
		return nil, classify("list product images", err)
	}
	p.Images, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ProductImage, error) {
		img := entity.ProductImage{ProductID: id}
		err := row.Scan(&img.URL, &img.DisplayOrder, &img.IsPrimary)
		return img, err
	})
	if err != nil {
		return nil, classify("scan product images", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT category_id FROM product_categories WHERE product_id = $1 ORDER BY category_id`, id)
	if err != nil {
		return nil, classify("list product categories", err)
	}
	p.CategoryIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify("scan product categories", err)
	}
	return &p, nil
}

// ProductImageRepo tabla product_images.
type ProductImageRepo struct {
	q Querier
}

func NewProductImageRepository(q Querier) *ProductImageRepo {
	return &ProductImageRepo{q: q}
}

// InsertMany inserta todas las filas en una transacción.
func (r *ProductImageRepo) InsertMany(ctx context.Context, images []entity.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return inTx(ctx, r.q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, img := range images {
			batch.Queue(`
				INSERT INTO product_images (product_id, url, display_order, is_primary)
				VALUES ($1, $2, $3, $4)`,
				img.ProductID, img.URL, img.DisplayOrder, img.IsPrimary)
		}
		return execBatch(ctx, tx, "insert product images", batch)
	})
}

func (r *ProductImageRepo) DeleteByProduct(ctx context.Context, productID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID)
	return classify("delete product images", err)
}

// ProductCategoryRepo tabla product_categories.
type ProductCategoryRepo struct {
	q Querier
}

func NewProductCategoryRepository(q Querier) *ProductCategoryRepo {
	return &ProductCategoryRepo{q: q}
}

// InsertMany inserta todas las asociaciones en una transacción.
func (r *ProductCategoryRepo) InsertMany(ctx context.Context, assocs []entity.ProductCategoryAssoc) error {
	if len(assocs) == 0 {
		return nil
	}
	return inTx(ctx, r.q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range assocs {
			batch.Queue(`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`, a.ProductID, a.CategoryID)
		}
		return execBatch(ctx, tx, "insert product categories", batch)
	})
}

func (r *ProductCategoryRepo) DeleteByProduct(ctx context.Context, productID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID)
	return classify("delete product categories", err)
}
