// Package catalog serves categories, products and inventory listings through
// the generic query engine.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

var (
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrNegativeQuantity = errors.New("initial quantity must not be negative")
)

type Store interface {
	query.DB
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type Service struct {
	DB Store

	Categories  *query.Engine[orders.Category]
	Products    *query.Engine[orders.Product]
	Inventories *query.Engine[orders.Inventory]
}

func NewService(db Store, onDegrade func(string, error)) *Service {
	s := &Service{
		DB:          db,
		Categories:  query.New[orders.Category](orders.CategoryEntity),
		Products:    query.New[orders.Product](orders.ProductEntity),
		Inventories: query.New[orders.Inventory](orders.InventoryEntity),
	}
	s.Categories.OnDegrade = onDegrade
	s.Products.OnDegrade = onDegrade
	s.Inventories.OnDegrade = onDegrade
	return s
}

// ---- categories ----

func (s *Service) CreateCategory(ctx context.Context, fields map[string]any) (orders.Category, error) {
	return s.Categories.Create(ctx, s.DB, fields)
}

func (s *Service) ListCategories(ctx context.Context, p query.ListParams) (query.ListResult[orders.Category], error) {
	return s.Categories.List(ctx, s.DB, p)
}

// GetCategory returns the category with its products.
func (s *Service) GetCategory(ctx context.Context, uuid string) (orders.Category, error) {
	c, err := s.Categories.GetOne(ctx, s.DB, query.Conditions{"uuid": uuid})
	if err != nil {
		return c, err
	}
	products, err := s.Products.List(ctx, s.DB, query.ListParams{
		Filter: query.Filter{Joins: []query.Join{orders.ByCategory(c.UUID)}},
	})
	if err != nil {
		return c, err
	}
	c.Products = products.Items
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, uuid string, fields map[string]any) (orders.Category, error) {
	return s.Categories.Update(ctx, s.DB, query.Conditions{"uuid": uuid}, fields)
}

func (s *Service) DeleteCategory(ctx context.Context, uuid string) (query.Status, error) {
	return s.Categories.Delete(ctx, s.DB, query.Conditions{"uuid": uuid})
}

// ---- products ----

// ProductInput carries the create payload. Fields holds the product columns;
// unknown keys are dropped by the engine.
type ProductInput struct {
	Fields          map[string]any
	CategoryUUID    string
	InitialQuantity int
}

// CreateProduct writes the product, its category link and its inventory row
// in one transaction, so a product is never visible without both.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (orders.Product, error) {
	if err := checkPrice(in.Fields); err != nil {
		return orders.Product{}, err
	}
	if in.InitialQuantity < 0 {
		return orders.Product{}, ErrNegativeQuantity
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	category, err := s.Categories.GetOne(ctx, tx, query.Conditions{"uuid": in.CategoryUUID},
		query.NotFoundMessage("Category not found"))
	if err != nil {
		return orders.Product{}, err
	}

	product, err := s.Products.Create(ctx, tx, in.Fields)
	if err != nil {
		return orders.Product{}, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO product_category (product_id, category_id) VALUES ($1, $2)`,
		product.UUID, category.UUID); err != nil {
		return orders.Product{}, fmt.Errorf("link product to category: %w", err)
	}

	if _, err := s.Inventories.Create(ctx, tx, map[string]any{
		"product_id": product.UUID,
		"quantity":   in.InitialQuantity,
	}); err != nil {
		return orders.Product{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return orders.Product{}, err
	}
	return product, nil
}

// ListProducts lists products, narrowed to one category when categoryUUID
// is set.
func (s *Service) ListProducts(ctx context.Context, p query.ListParams, categoryUUID string) (query.ListResult[orders.Product], error) {
	if categoryUUID != "" {
		p.Joins = append(p.Joins, orders.ByCategory(categoryUUID))
	}
	return s.Products.List(ctx, s.DB, p)
}

func (s *Service) GetProduct(ctx context.Context, uuid string) (orders.Product, error) {
	return s.Products.GetOne(ctx, s.DB, query.Conditions{"uuid": uuid})
}

func (s *Service) UpdateProduct(ctx context.Context, uuid string, fields map[string]any) (orders.Product, error) {
	if err := checkPrice(fields); err != nil {
		return orders.Product{}, err
	}
	return s.Products.Update(ctx, s.DB, query.Conditions{"uuid": uuid}, fields)
}

func (s *Service) DeleteProduct(ctx context.Context, uuid string) (query.Status, error) {
	return s.Products.Delete(ctx, s.DB, query.Conditions{"uuid": uuid})
}

// ---- inventory ----

func (s *Service) ListInventory(ctx context.Context, p query.ListParams) (query.ListResult[orders.InventoryView], error) {
	res, err := s.Inventories.List(ctx, s.DB, p)
	if err != nil {
		return query.ListResult[orders.InventoryView]{}, err
	}
	out := query.ListResult[orders.InventoryView]{Items: make([]orders.InventoryView, 0, len(res.Items)), Count: res.Count}
	for _, inv := range res.Items {
		out.Items = append(out.Items, inv.View())
	}
	return out, nil
}

func checkPrice(fields map[string]any) error {
	v, ok := fields["price"]
	if !ok || v == nil {
		return nil
	}
	var d decimal.Decimal
	switch t := v.(type) {
	case float64:
		d = decimal.NewFromFloat(t)
	case string:
		parsed, err := decimal.NewFromString(t)
		if err != nil {
			return nil // left to the engine, which reports invalid input
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil
		}
		d = parsed
	case decimal.Decimal:
		d = t
	default:
		return nil
	}
	if d.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}
