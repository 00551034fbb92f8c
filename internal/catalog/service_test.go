package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-order-fulfillment/internal/catalog"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres/pgtest"
	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

func TestNegativeInputsRejectedBeforeStore(t *testing.T) {
	s := catalog.NewService(nil, nil)
	ctx := context.Background()
	if _, err := s.CreateProduct(ctx, catalog.ProductInput{Fields: map[string]any{"price": -1.0}}); !errors.Is(err, catalog.ErrNegativePrice) {
		t.Fatalf("negative price err = %v", err)
	}
	if _, err := s.CreateProduct(ctx, catalog.ProductInput{Fields: map[string]any{"price": "3"}, InitialQuantity: -1}); !errors.Is(err, catalog.ErrNegativeQuantity) {
		t.Fatalf("negative quantity err = %v", err)
	}
	if _, err := s.UpdateProduct(ctx, "x", map[string]any{"price": "-0.01"}); !errors.Is(err, catalog.ErrNegativePrice) {
		t.Fatalf("update negative price err = %v", err)
	}
}

func TestIntegration_CatalogFlow(t *testing.T) {
	pool := pgtest.Open(t)
	s := catalog.NewService(pool, nil)
	ctx := context.Background()

	tools, err := s.CreateCategory(ctx, map[string]any{"name": "Tools", "description": "hand tools"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	garden, err := s.CreateCategory(ctx, map[string]any{"name": "Garden"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	hammer, err := s.CreateProduct(ctx, catalog.ProductInput{
		Fields:          map[string]any{"name": "Hammer", "price": "12.50", "sku": "ignored"},
		CategoryUUID:    tools.UUID,
		InitialQuantity: 5,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if !hammer.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("price = %s", hammer.Price)
	}
	if _, err := s.CreateProduct(ctx, catalog.ProductInput{
		Fields:       map[string]any{"name": "Rake", "price": 7},
		CategoryUUID: garden.UUID,
	}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// Unknown category: nothing is written.
	_, err = s.CreateProduct(ctx, catalog.ProductInput{
		Fields:       map[string]any{"name": "Ghost", "price": 1},
		CategoryUUID: "missing",
	})
	if !errors.Is(err, query.ErrNotFound) {
		t.Fatalf("missing category err = %v", err)
	}
	all, err := s.ListProducts(ctx, query.ListParams{}, "")
	if err != nil || all.Count != 2 {
		t.Fatalf("products = %+v, %v", all, err)
	}

	inTools, err := s.ListProducts(ctx, query.ListParams{}, tools.UUID)
	if err != nil || inTools.Count != 1 || inTools.Items[0].UUID != hammer.UUID {
		t.Fatalf("tools products = %+v, %v", inTools, err)
	}

	detail, err := s.GetCategory(ctx, tools.UUID)
	if err != nil || len(detail.Products) != 1 || detail.Products[0].UUID != hammer.UUID {
		t.Fatalf("category detail = %+v, %v", detail, err)
	}

	inv, err := s.ListInventory(ctx, query.ListParams{Filter: query.Filter{Conditions: query.Conditions{"product_id": hammer.UUID}}})
	if err != nil || inv.Count != 1 || inv.Items[0].Quantity != 5 {
		t.Fatalf("inventory = %+v, %v", inv, err)
	}

	up, err := s.UpdateCategory(ctx, tools.UUID, map[string]any{"name": "Hand tools"})
	if err != nil || up.Name != "Hand tools" || up.Description == nil || *up.Description != "hand tools" {
		t.Fatalf("UpdateCategory = %+v, %v", up, err)
	}

	// A category still linked to a product cannot be deleted.
	if _, err := s.DeleteCategory(ctx, tools.UUID); !errors.Is(err, query.ErrInUseOrInvalid) {
		t.Fatalf("delete linked category err = %v", err)
	}
	st, err := s.DeleteProduct(ctx, hammer.UUID)
	if err != nil || st.Status != "success" {
		t.Fatalf("DeleteProduct = %+v, %v", st, err)
	}
	if _, err := s.DeleteCategory(ctx, tools.UUID); err != nil {
		t.Fatalf("delete unlinked category: %v", err)
	}
	if _, err := s.GetCategory(ctx, tools.UUID); !errors.Is(err, query.ErrNotFound) {
		t.Fatalf("deleted category err = %v", err)
	}
}
