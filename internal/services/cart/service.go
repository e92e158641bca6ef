package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a cart does not exist or has expired.
	ErrNotFound = errors.New("cart not found")
	// ErrProductNotFound is returned when the catalog has no such product.
	ErrProductNotFound = errors.New("product not found")
)

// Product is the catalog snapshot taken when an entry is added. Unit price
// and stock are frozen at add time; checkout bills the snapshot, not live
// catalog prices.
type Product struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	UnitPrice  int64     `json:"unit_price"`
	Stock      int32     `json:"stock"`
	IsPreorder bool      `json:"is_preorder"`
}

// Catalog resolves product snapshots for cart additions so clients cannot
// forge prices or stock levels.
type Catalog interface {
	Snapshot(ctx context.Context, id uuid.UUID) (Product, error)
}

// Entry is one unit of one product in a cart. Adding the same product twice
// produces two entries; removal by entry id removes exactly one unit.
type Entry struct {
	ID      uuid.UUID `json:"id"`
	Product Product   `json:"product"`
	AddedAt time.Time `json:"added_at"`
}

// Group is the per-product aggregation of cart entries.
type Group struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	UnitPrice  int64     `json:"unit_price"`
	Quantity   int32     `json:"quantity"`
	Stock      int32     `json:"stock"`
	IsPreorder bool      `json:"is_preorder"`
}

// Summary is the aggregate view of a cart used by the UI and by checkout
// validation.
type Summary struct {
	Entries  []Entry `json:"entries"`
	Groups   []Group `json:"groups"`
	Subtotal int64   `json:"subtotal"`
	// OverStock is true when any non-preorder product's grouped quantity
	// exceeds its snapshot stock. Adding is never blocked; the flag blocks
	// checkout.
	OverStock bool `json:"over_stock"`
}

type sessionCart struct {
	entries   []Entry
	updatedAt time.Time
}

// Service holds session-scoped carts in memory. Carts are ephemeral: each
// browser session owns exactly one, and idle carts are swept after the TTL.
type Service struct {
	mu      sync.Mutex
	carts   map[uuid.UUID]*sessionCart
	catalog Catalog
	ttl     time.Duration
	logger  *slog.Logger
	done    chan struct{}
	once    sync.Once
}

// NewService creates a cart service backed by the given catalog.
func NewService(catalog Catalog, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		carts:   make(map[uuid.UUID]*sessionCart),
		catalog: catalog,
		ttl:     ttl,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// StartSweeper evicts expired carts at the given interval until Stop is
// called.
func (s *Service) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Service) sweep() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.carts {
		if c.updatedAt.Before(cutoff) {
			delete(s.carts, id)
		}
	}
}

// Create allocates a new empty cart and returns its id.
func (s *Service) Create() uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.carts[id] = &sessionCart{updatedAt: time.Now()}
	s.mu.Unlock()
	return id
}

// AddItem snapshots the product from the catalog and appends one entry to
// the cart. Stock is not checked here: the UI may optimistically over-add,
// and the over-stock flag surfaces at summary time.
func (s *Service) AddItem(ctx context.Context, cartID, productID uuid.UUID) (Entry, error) {
	p, err := s.catalog.Snapshot(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Entry{}, ErrProductNotFound
		}
		return Entry{}, fmt.Errorf("snapshotting product %s: %w", productID, err)
	}

	entry := Entry{
		ID:      uuid.New(),
		Product: p,
		AddedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	c.entries = append(c.entries, entry)
	c.updatedAt = time.Now()
	return entry, nil
}

// RemoveItem removes exactly one entry by id. Removing an absent entry id is
// a no-op.
func (s *Service) RemoveItem(cartID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	for i, e := range c.entries {
		if e.ID == entryID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	c.updatedAt = time.Now()
	return nil
}

// Clear empties the cart, keeping the session alive.
func (s *Service) Clear(cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	c.entries = nil
	c.updatedAt = time.Now()
	return nil
}

// Summarize returns the aggregate view of a cart.
func (s *Service) Summarize(cartID uuid.UUID) (Summary, error) {
	s.mu.Lock()
	c, ok := s.carts[cartID]
	if !ok {
		s.mu.Unlock()
		return Summary{}, ErrNotFound
	}
	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	s.mu.Unlock()

	return Aggregate(entries), nil
}

// Aggregate collapses a flat entry list into the cart summary: per-product
// groups, the subtotal, and the over-stock flag. Group order follows first
// appearance in the entry list.
func Aggregate(entries []Entry) Summary {
	sum := Summary{Entries: entries}
	index := make(map[uuid.UUID]int)

	for _, e := range entries {
		sum.Subtotal += e.Product.UnitPrice
		if i, ok := index[e.Product.ID]; ok {
			sum.Groups[i].Quantity++
			continue
		}
		index[e.Product.ID] = len(sum.Groups)
		sum.Groups = append(sum.Groups, Group{
			ProductID:  e.Product.ID,
			Name:       e.Product.Name,
			UnitPrice:  e.Product.UnitPrice,
			Quantity:   1,
			Stock:      e.Product.Stock,
			IsPreorder: e.Product.IsPreorder,
		})
	}

	for _, g := range sum.Groups {
		if !g.IsPreorder && g.Quantity > g.Stock {
			sum.OverStock = true
			break
		}
	}

	return sum
}
