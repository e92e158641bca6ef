package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyOrder is returned when an order is built with no lines.
	ErrEmptyOrder = errors.New("order must contain at least one line")
	// ErrOverStock is returned when a non-preorder line exceeds its stock.
	ErrOverStock = errors.New("requested quantity exceeds available stock")
	// ErrNoCourier is returned when no courier was selected.
	ErrNoCourier = errors.New("a courier must be selected")
	// ErrPaymentConflict is returned when a different payment id is already
	// attached to the order.
	ErrPaymentConflict = errors.New("order already has a different payment id")
	// ErrInvalidStatus is returned for a status outside the known vocabulary.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Store persists orders. The pgx implementation lives in internal/store; an
// in-memory implementation backs the unit tests.
type Store interface {
	Insert(ctx context.Context, o Order) error
	GetByReference(ctx context.Context, reference string) (Order, error)
	GetByPaymentID(ctx context.Context, paymentID string) (Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]Order, int64, error)
	SetPreferenceID(ctx context.Context, reference, preferenceID string) error
	SetPaymentID(ctx context.Context, reference, paymentID string) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status, providerStatus string) error
	SetTracking(ctx context.Context, reference, trackingNumber, courier string) error
}

// Service owns the order lifecycle: building and persisting new orders,
// reconciling provider payment notifications, and applying admin updates.
type Service struct {
	store     Store
	logger    *slog.Logger
	refPrefix string
}

// NewService creates a new order service. refPrefix prefixes generated order
// references (e.g. "CASAFUNKO").
func NewService(store Store, refPrefix string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		logger:    logger,
		refPrefix: refPrefix,
	}
}

// NewReference generates a globally unique order reference. The random UUID
// keeps the collision probability cryptographically negligible; a collision
// would corrupt webhook order lookup.
func (s *Service) NewReference() string {
	return fmt.Sprintf("%s-%s", s.refPrefix, uuid.NewString())
}

// BuildLine is one aggregated product group entering an order: quantity units
// of a single product at the cart-snapshot unit price.
type BuildLine struct {
	ProductID  uuid.UUID
	Name       string
	UnitPrice  int64
	Quantity   int32
	Stock      int32
	IsPreorder bool
}

// Courier is the selected shipping option for an order.
type Courier struct {
	ID    string
	Name  string
	Price int64
}

// BuildParams carries the validated checkout inputs into Build.
type BuildParams struct {
	Lines    []BuildLine
	Courier  Courier
	Customer Customer
}

// Build constructs and persists a new pending order.
//
// The item sequence has one entry per distinct product plus exactly one
// synthetic shipping line under the sentinel product id. TotalAmount is the
// exact integer sum of all line totals including shipping. If persistence
// fails the checkout is aborted before any payment provider call is made.
func (s *Service) Build(ctx context.Context, params BuildParams) (Order, error) {
	if len(params.Lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	if params.Courier.ID == "" || params.Courier.Name == "" {
		return Order{}, ErrNoCourier
	}
	for _, line := range params.Lines {
		if !line.IsPreorder && line.Quantity > line.Stock {
			return Order{}, fmt.Errorf("%w: %s", ErrOverStock, line.Name)
		}
	}

	items := make([]Item, 0, len(params.Lines)+1)
	for _, line := range params.Lines {
		items = append(items, Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	items = append(items, Item{
		ProductID: ShippingProductID,
		Name:      params.Courier.Name,
		UnitPrice: params.Courier.Price,
		Quantity:  1,
	})

	now := time.Now().UTC()
	o := Order{
		ID:            uuid.New(),
		Reference:     s.NewReference(),
		Items:         items,
		Status:        StatusPending,
		Customer:      params.Customer,
		CourierID:     params.Courier.ID,
		CourierName:   params.Courier.Name,
		ShippingPrice: params.Courier.Price,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.TotalAmount = o.Total()

	if err := s.store.Insert(ctx, o); err != nil {
		return Order{}, fmt.Errorf("persisting order: %w", err)
	}

	s.logger.Info("order created",
		slog.String("reference", o.Reference),
		slog.Int64("total_amount", o.TotalAmount),
		slog.Int("items", len(o.Items)),
		slog.String("courier", o.CourierName),
	)

	return o, nil
}

// GetByReference returns a single order by its checkout reference.
func (s *Service) GetByReference(ctx context.Context, reference string) (Order, error) {
	o, err := s.store.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("getting order %s: %w", reference, err)
	}
	return o, nil
}

// List returns paginated orders with an optional status filter (empty means
// no filter).
func (s *Service) List(ctx context.Context, status string, page, pageSize int) ([]Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 250 {
		pageSize = 250
	}
	offset := (page - 1) * pageSize

	orders, total, err := s.store.List(ctx, status, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// AttachPreference records the provider checkout-preference id on the order.
func (s *Service) AttachPreference(ctx context.Context, reference, preferenceID string) error {
	if err := s.store.SetPreferenceID(ctx, reference, preferenceID); err != nil {
		return fmt.Errorf("attaching preference to order %s: %w", reference, err)
	}
	return nil
}

// AttachPayment records the provider payment id reported on the redirect back
// from hosted checkout. Attachment is set-once: re-attaching the same id is a
// no-op, attaching a different id to an already-correlated order fails with
// ErrPaymentConflict.
func (s *Service) AttachPayment(ctx context.Context, reference, paymentID string) error {
	o, err := s.store.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if o.PaymentID == paymentID {
		return nil
	}
	if o.PaymentID != "" {
		return ErrPaymentConflict
	}
	if err := s.store.SetPaymentID(ctx, reference, paymentID); err != nil {
		return fmt.Errorf("attaching payment to order %s: %w", reference, err)
	}
	s.logger.Info("payment attached",
		slog.String("reference", reference),
		slog.String("payment_id", paymentID),
	)
	return nil
}

// ApplyPaymentNotification reconciles a verified provider payment
// notification into order state. It maps the provider status to the internal
// vocabulary, locates the order by payment id, and overwrites the status and
// raw provider status.
//
// The update is a pure overwrite with no counters or append-only state, so
// re-delivering the same notification leaves the order unchanged. ErrNotFound
// means this system does not know the payment; callers should acknowledge
// anyway so the provider stops retrying.
func (s *Service) ApplyPaymentNotification(ctx context.Context, paymentID, providerStatus string) (Order, error) {
	mapped := MapProviderStatus(providerStatus)

	o, err := s.store.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("looking up order for payment %s: %w", paymentID, err)
	}

	if err := s.store.SetStatus(ctx, o.ID, mapped, providerStatus); err != nil {
		return Order{}, fmt.Errorf("updating order %s status: %w", o.Reference, err)
	}

	s.logger.Info("payment notification applied",
		slog.String("reference", o.Reference),
		slog.String("payment_id", paymentID),
		slog.String("provider_status", providerStatus),
		slog.String("status", string(mapped)),
	)

	o.Status = mapped
	o.PaymentStatus = providerStatus
	return o, nil
}

// UpdateStatus applies a manual admin status change. It shares the status
// field with webhook reconciliation; last writer wins.
func (s *Service) UpdateStatus(ctx context.Context, reference string, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, ErrInvalidStatus
	}
	o, err := s.store.GetByReference(ctx, reference)
	if err != nil {
		return Order{}, err
	}
	if err := s.store.SetStatus(ctx, o.ID, status, o.PaymentStatus); err != nil {
		return Order{}, fmt.Errorf("updating order %s status: %w", reference, err)
	}

	s.logger.Info("order status updated",
		slog.String("reference", reference),
		slog.String("from_status", string(o.Status)),
		slog.String("to_status", string(status)),
	)

	o.Status = status
	return o, nil
}

// UpdateTracking sets the tracking number and courier name on an order.
func (s *Service) UpdateTracking(ctx context.Context, reference, trackingNumber, courier string) error {
	if _, err := s.store.GetByReference(ctx, reference); err != nil {
		return err
	}
	if err := s.store.SetTracking(ctx, reference, trackingNumber, courier); err != nil {
		return fmt.Errorf("updating tracking for order %s: %w", reference, err)
	}
	s.logger.Info("order tracking updated", slog.String("reference", reference))
	return nil
}
