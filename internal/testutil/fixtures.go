package testutil

import (
	"context"
	"testing"

	"github.com/casafunko/api/internal/store"
)

// FixtureProduct inserts a catalog product and returns it.
func (tdb *TestDB) FixtureProduct(t *testing.T, name string, price int64, stock int32) store.Product {
	t.Helper()

	products := store.NewProducts(tdb.Pool)
	p, err := products.Create(context.Background(), store.CreateProductParams{
		Name:     name,
		Category: "funko",
		Price:    price,
		Stock:    stock,
	})
	if err != nil {
		t.Fatalf("creating fixture product %q: %v", name, err)
	}
	return p
}

// FixturePreorderProduct inserts a preorder product with zero stock.
func (tdb *TestDB) FixturePreorderProduct(t *testing.T, name string, price int64) store.Product {
	t.Helper()

	products := store.NewProducts(tdb.Pool)
	p, err := products.Create(context.Background(), store.CreateProductParams{
		Name:       name,
		Category:   "funko",
		Price:      price,
		Stock:      0,
		IsPreorder: true,
	})
	if err != nil {
		t.Fatalf("creating fixture preorder product %q: %v", name, err)
	}
	return p
}

// FixtureAdmin inserts an admin user with the given bcrypt hash.
func (tdb *TestDB) FixtureAdmin(t *testing.T, email, passwordHash string) store.AdminUser {
	t.Helper()

	admins := store.NewAdmins(tdb.Pool)
	u, err := admins.Create(context.Background(), email, passwordHash)
	if err != nil {
		t.Fatalf("creating fixture admin %q: %v", email, err)
	}
	return u
}
