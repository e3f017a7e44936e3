package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
	"github.com/codr1/Courtside/internal/models"
)

type Products struct {
	q *dbgen.Queries
}

func productFromRow(row dbgen.Product) models.Product {
	return models.Product{
		ID:         row.ID,
		Name:       row.Name,
		Category:   row.Category,
		PriceCents: row.PriceCents,
		Stock:      row.Stock,
	}
}

func (p *Products) List(ctx context.Context) ([]models.Product, error) {
	rows, err := p.q.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, productFromRow(row))
	}
	return products, nil
}

func (p *Products) Create(ctx context.Context, product models.Product) (models.Product, error) {
	if err := product.Validate(); err != nil {
		return models.Product{}, err
	}
	row, err := p.q.CreateProduct(ctx, dbgen.CreateProductParams{
		Name:       strings.TrimSpace(product.Name),
		Category:   strings.TrimSpace(product.Category),
		PriceCents: product.PriceCents,
		Stock:      product.Stock,
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return productFromRow(row), nil
}

func (p *Products) Update(ctx context.Context, product models.Product) (models.Product, error) {
	if err := product.Validate(); err != nil {
		return models.Product{}, err
	}
	row, err := p.q.UpdateProduct(ctx, dbgen.UpdateProductParams{
		Name:       strings.TrimSpace(product.Name),
		Category:   strings.TrimSpace(product.Category),
		PriceCents: product.PriceCents,
		Stock:      product.Stock,
		ID:         product.ID,
	})
	if err != nil {
		return models.Product{}, db.MapError(err)
	}
	return productFromRow(row), nil
}

func (p *Products) Delete(ctx context.Context, id int64) error {
	return affected(p.q.DeleteProduct(ctx, id))
}
