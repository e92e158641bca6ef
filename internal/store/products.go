package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casafunko/api/internal/services/cart"
)

// ErrProductNotFound is returned when a product does not exist.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog row. Prices are whole currency units (COP).
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
	Stock       int32     `json:"stock"`
	IsPreorder  bool      `json:"is_preorder"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter narrows List results. Zero values mean "no constraint";
// MinPrice/MaxPrice use -1 for unset so a zero bound remains expressible.
type ProductFilter struct {
	Search   string
	Category string
	MinPrice int64
	MaxPrice int64
}

// Products is the catalog repository.
type Products struct {
	pool *pgxpool.Pool
}

// NewProducts creates the products repository.
func NewProducts(pool *pgxpool.Pool) *Products {
	return &Products{pool: pool}
}

const productColumns = `id, name, description, category, price, stock,
	is_preorder, image_url, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock,
		&p.IsPreorder, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// List returns catalog products matching the filter, newest first.
func (r *Products) List(ctx context.Context, f ProductFilter) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		  AND ($3::bigint < 0 OR price >= $3)
		  AND ($4::bigint < 0 OR price <= $4)
		ORDER BY created_at DESC`,
		f.Search, f.Category, f.MinPrice, f.MaxPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	return products, nil
}

// Categories returns the distinct non-empty product categories.
func (r *Products) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Get returns a single product by id.
func (r *Products) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("getting product %s: %w", id, err)
	}
	return p, nil
}

// Snapshot implements cart.Catalog: the price/stock snapshot frozen into a
// cart entry at add time.
func (r *Products) Snapshot(ctx context.Context, id uuid.UUID) (cart.Product, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return cart.Product{}, cart.ErrProductNotFound
		}
		return cart.Product{}, err
	}
	return cart.Product{
		ID:         p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		Stock:      p.Stock,
		IsPreorder: p.IsPreorder,
	}, nil
}

// CreateProductParams holds the fields for a new catalog product.
type CreateProductParams struct {
	Name        string
	Description string
	Category    string
	Price       int64
	Stock       int32
	IsPreorder  bool
	ImageURL    string
}

// Create inserts a new catalog product.
func (r *Products) Create(ctx context.Context, params CreateProductParams) (Product, error) {
	now := time.Now().UTC()
	p := Product{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Category:    params.Category,
		Price:       params.Price,
		Stock:       params.Stock,
		IsPreorder:  params.IsPreorder,
		ImageURL:    params.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, description, category, price, stock,
			is_preorder, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock,
		p.IsPreorder, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product %q: %w", params.Name, err)
	}
	return p, nil
}

// Update overwrites the mutable fields of a catalog product.
func (r *Products) Update(ctx context.Context, id uuid.UUID, params CreateProductParams) (Product, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4,
		    stock = $5, is_preorder = $6, image_url = $7, updated_at = $8
		WHERE id = $9`,
		params.Name, params.Description, params.Category, params.Price,
		params.Stock, params.IsPreorder, params.ImageURL, time.Now().UTC(), id,
	)
	if err != nil {
		return Product{}, fmt.Errorf("updating product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return Product{}, ErrProductNotFound
	}
	return r.Get(ctx, id)
}

// SetImageURL updates only the image URL after a successful upload.
func (r *Products) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET image_url = $1, updated_at = $2 WHERE id = $3`,
		imageURL, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a catalog product.
func (r *Products) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
