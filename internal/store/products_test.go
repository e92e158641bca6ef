package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/services/cart"
	"github.com/casafunko/api/internal/store"
)

func TestProducts_CRUD(t *testing.T) {
	testDB.Truncate(t)
	products := store.NewProducts(testDB.Pool)
	ctx := context.Background()

	created, err := products.Create(ctx, store.CreateProductParams{
		Name:        "Funko Batman",
		Description: "DC classic",
		Category:    "funko",
		Price:       10000,
		Stock:       5,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := products.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Funko Batman" || got.Price != 10000 || got.Stock != 5 {
		t.Errorf("round trip: got %+v", got)
	}

	updated, err := products.Update(ctx, created.ID, store.CreateProductParams{
		Name:     "Funko Batman (1989)",
		Category: "funko",
		Price:    12000,
		Stock:    3,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Funko Batman (1989)" || updated.Price != 12000 {
		t.Errorf("after update: got %+v", updated)
	}

	if err := products.SetImageURL(ctx, created.ID, "/media/products/x.png"); err != nil {
		t.Fatalf("SetImageURL: %v", err)
	}
	got, _ = products.Get(ctx, created.ID)
	if got.ImageURL != "/media/products/x.png" {
		t.Errorf("image url: got %q", got.ImageURL)
	}

	if err := products.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := products.Get(ctx, created.ID); !errors.Is(err, store.ErrProductNotFound) {
		t.Errorf("after delete: got %v, want ErrProductNotFound", err)
	}
	if err := products.Delete(ctx, created.ID); !errors.Is(err, store.ErrProductNotFound) {
		t.Errorf("double delete: got %v, want ErrProductNotFound", err)
	}
}

func TestProducts_ListFilters(t *testing.T) {
	testDB.Truncate(t)
	products := store.NewProducts(testDB.Pool)
	ctx := context.Background()

	testDB.FixtureProduct(t, "Funko Batman", 10000, 5)
	testDB.FixtureProduct(t, "Funko Robin", 8000, 5)
	_, err := products.Create(ctx, store.CreateProductParams{
		Name: "Sticker pack", Category: "accesorios", Price: 2000, Stock: 50,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name   string
		filter store.ProductFilter
		want   int
	}{
		{"no filter", store.ProductFilter{MinPrice: -1, MaxPrice: -1}, 3},
		{"search", store.ProductFilter{Search: "batman", MinPrice: -1, MaxPrice: -1}, 1},
		{"category", store.ProductFilter{Category: "accesorios", MinPrice: -1, MaxPrice: -1}, 1},
		{"min price", store.ProductFilter{MinPrice: 8000, MaxPrice: -1}, 2},
		{"price range", store.ProductFilter{MinPrice: 0, MaxPrice: 5000}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := products.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d products, want %d", len(got), tt.want)
			}
		})
	}

	categories, err := products.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "accesorios" || categories[1] != "funko" {
		t.Errorf("categories: got %v", categories)
	}
}

func TestProducts_Snapshot(t *testing.T) {
	testDB.Truncate(t)
	products := store.NewProducts(testDB.Pool)
	ctx := context.Background()

	p := testDB.FixtureProduct(t, "Funko Batman", 10000, 5)
	pre := testDB.FixturePreorderProduct(t, "Funko Superman Preorder", 12000)

	snap, err := products.Snapshot(ctx, p.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.UnitPrice != 10000 || snap.Stock != 5 || snap.IsPreorder {
		t.Errorf("snapshot: got %+v", snap)
	}

	snap, err = products.Snapshot(ctx, pre.ID)
	if err != nil {
		t.Fatalf("Snapshot preorder: %v", err)
	}
	if !snap.IsPreorder || snap.Stock != 0 {
		t.Errorf("preorder snapshot: got %+v", snap)
	}

	if _, err := products.Snapshot(ctx, uuid.New()); !errors.Is(err, cart.ErrProductNotFound) {
		t.Errorf("unknown product: got %v, want cart.ErrProductNotFound", err)
	}
}
