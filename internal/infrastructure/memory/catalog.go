package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository         = (*ProductRepo)(nil)
	_ repository.ProductImageRepository    = (*ProductImageRepo)(nil)
	_ repository.ProductCategoryRepository = (*ProductCategoryRepo)(nil)
)

// ProductRepo tabla products en memoria.
type ProductRepo struct{ s *Store }

// ProductImageRepo tabla product_images en memoria.
type ProductImageRepo struct{ s *Store }

// ProductCategoryRepo tabla product_categories en memoria.
type ProductCategoryRepo struct{ s *Store }

// Products adaptador de la tabla products.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// ProductImages adaptador de la tabla product_images.
func (s *Store) ProductImages() *ProductImageRepo { return &ProductImageRepo{s: s} }

// ProductCategories adaptador de la tabla product_categories.
func (s *Store) ProductCategories() *ProductCategoryRepo { return &ProductCategoryRepo{s: s} }

func (r *ProductRepo) Insert(_ context.Context, p *entity.Product) (*entity.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertProduct); err != nil {
		return nil, err
	}
	row := entity.Product{
		ID:          newID(),
		ColmadoID:   p.ColmadoID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   s.now().UTC(),
	}
	s.products[row.ID] = row
	s.markWritten(productKey(row.ID))
	out := row
	return &out, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdateProduct); err != nil {
		return err
	}
	row, ok := s.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Name = p.Name
	row.Description = p.Description
	row.Price = p.Price
	row.Stock = p.Stock
	row.IsActive = p.IsActive
	s.products[p.ID] = row
	s.markWritten(productKey(p.ID))
	return nil
}

// Delete borra la fila raíz y, como el backend, sus imágenes y categorías en cascada.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteProduct); err != nil {
		return err
	}
	delete(s.products, id)
	delete(s.images, id)
	delete(s.categories, id)
	delete(s.hidden, productKey(id))
	return nil
}

func (r *ProductRepo) GetComposed(_ context.Context, id string) (*entity.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetProduct); err != nil {
		return nil, err
	}
	row, ok := s.products[id]
	if !ok || !s.visible(productKey(id)) {
		return nil, nil
	}
	row.Images = append([]entity.ProductImage{}, s.images[id]...)
	sort.Slice(row.Images, func(i, j int) bool { return row.Images[i].DisplayOrder < row.Images[j].DisplayOrder })
	row.CategoryIDs = append([]string{}, s.categories[id]...)
	return &row, nil
}

// InsertMany inserta todas las filas o ninguna; respeta el par único (producto, orden).
func (r *ProductImageRepo) InsertMany(_ context.Context, images []entity.ProductImage) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertImages); err != nil {
		return err
	}
	for _, img := range images {
		if _, ok := s.products[img.ProductID]; !ok {
			return domain.ErrForeignKey
		}
		for _, existing := range s.images[img.ProductID] {
			if existing.DisplayOrder == img.DisplayOrder {
				return domain.ErrDuplicate
			}
		}
	}
	for _, img := range images {
		s.images[img.ProductID] = append(s.images[img.ProductID], img)
		s.markWritten(productKey(img.ProductID))
	}
	return nil
}

func (r *ProductImageRepo) DeleteByProduct(_ context.Context, productID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteImages); err != nil {
		return err
	}
	delete(s.images, productID)
	return nil
}

// InsertMany inserta todas las asociaciones o ninguna; el par (producto, categoría) es único.
func (r *ProductCategoryRepo) InsertMany(_ context.Context, assocs []entity.ProductCategoryAssoc) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpInsertCategories); err != nil {
		return err
	}
	for _, a := range assocs {
		if _, ok := s.products[a.ProductID]; !ok {
			return domain.ErrForeignKey
		}
		for _, existing := range s.categories[a.ProductID] {
			if existing == a.CategoryID {
				return domain.ErrDuplicate
			}
		}
	}
	for _, a := range assocs {
		s.categories[a.ProductID] = append(s.categories[a.ProductID], a.CategoryID)
		s.markWritten(productKey(a.ProductID))
	}
	return nil
}

func (r *ProductCategoryRepo) DeleteByProduct(_ context.Context, productID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteCategories); err != nil {
		return err
	}
	delete(s.categories, productID)
	return nil
}
