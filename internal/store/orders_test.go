package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/services/order"
	"github.com/casafunko/api/internal/store"
)

func fixtureOrder(reference string) order.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return order.Order{
		ID:        uuid.New(),
		Reference: reference,
		Items: []order.Item{
			{ProductID: uuid.New(), Name: "Funko Batman", UnitPrice: 10000, Quantity: 2},
			{ProductID: order.ShippingProductID, Name: "Servientrega", UnitPrice: 15000, Quantity: 1},
		},
		TotalAmount: 35000,
		Status:      order.StatusPending,
		Customer: order.Customer{
			Name:       "Laura Gomez",
			Email:      "laura@example.com",
			Phone:      "3001234567",
			Address:    "Calle 10 # 5-20",
			City:       "Bogota",
			Department: "Cundinamarca",
		},
		CourierID:     "servientrega",
		CourierName:   "Servientrega",
		ShippingPrice: 15000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOrders_InsertAndGet(t *testing.T) {
	testDB.Truncate(t)
	orders := store.NewOrders(testDB.Pool)
	ctx := context.Background()

	o := fixtureOrder("CASAFUNKO-" + uuid.NewString())
	if err := orders.Insert(ctx, o); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := orders.GetByReference(ctx, o.Reference)
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if got.ID != o.ID || got.TotalAmount != 35000 || got.Status != order.StatusPending {
		t.Errorf("round trip: got %+v", got)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(got.Items))
	}
	if got.Items[1].ProductID != order.ShippingProductID {
		t.Errorf("shipping line lost: %+v", got.Items[1])
	}
	if got.Customer.Email != "laura@example.com" {
		t.Errorf("customer: got %+v", got.Customer)
	}

	if _, err := orders.GetByReference(ctx, "CASAFUNKO-missing"); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("unknown reference: got %v, want ErrNotFound", err)
	}
}

func TestOrders_PaymentLifecycle(t *testing.T) {
	testDB.Truncate(t)
	orders := store.NewOrders(testDB.Pool)
	ctx := context.Background()

	o := fixtureOrder("CASAFUNKO-" + uuid.NewString())
	if err := orders.Insert(ctx, o); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := orders.SetPreferenceID(ctx, o.Reference, "pref-1"); err != nil {
		t.Fatalf("SetPreferenceID: %v", err)
	}
	if err := orders.SetPaymentID(ctx, o.Reference, "PAY1"); err != nil {
		t.Fatalf("SetPaymentID: %v", err)
	}

	got, err := orders.GetByPaymentID(ctx, "PAY1")
	if err != nil {
		t.Fatalf("GetByPaymentID: %v", err)
	}
	if got.Reference != o.Reference || got.PreferenceID != "pref-1" {
		t.Errorf("lookup by payment id: got %+v", got)
	}

	if err := orders.SetStatus(ctx, o.ID, order.StatusPaid, "approved"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, _ = orders.GetByReference(ctx, o.Reference)
	if got.Status != order.StatusPaid || got.PaymentStatus != "approved" {
		t.Errorf("after status update: status %q provider %q", got.Status, got.PaymentStatus)
	}
	if !got.UpdatedAt.After(o.UpdatedAt) {
		t.Errorf("updated_at not bumped: %s", got.UpdatedAt)
	}

	if _, err := orders.GetByPaymentID(ctx, "PAY-unknown"); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("unknown payment id: got %v, want ErrNotFound", err)
	}
	if err := orders.SetPaymentID(ctx, "CASAFUNKO-missing", "PAY2"); !errors.Is(err, order.ErrNotFound) {
		t.Errorf("SetPaymentID on missing order: got %v, want ErrNotFound", err)
	}
}

func TestOrders_SetTracking(t *testing.T) {
	testDB.Truncate(t)
	orders := store.NewOrders(testDB.Pool)
	ctx := context.Background()

	o := fixtureOrder("CASAFUNKO-" + uuid.NewString())
	if err := orders.Insert(ctx, o); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := orders.SetTracking(ctx, o.Reference, "TRK-42", ""); err != nil {
		t.Fatalf("SetTracking: %v", err)
	}
	got, _ := orders.GetByReference(ctx, o.Reference)
	if got.TrackingNumber != "TRK-42" {
		t.Errorf("tracking number: got %q", got.TrackingNumber)
	}
	if got.CourierName != "Servientrega" {
		t.Errorf("courier name overwritten by empty value: %q", got.CourierName)
	}

	if err := orders.SetTracking(ctx, o.Reference, "TRK-43", "Coordinadora"); err != nil {
		t.Fatalf("SetTracking with courier: %v", err)
	}
	got, _ = orders.GetByReference(ctx, o.Reference)
	if got.TrackingNumber != "TRK-43" || got.CourierName != "Coordinadora" {
		t.Errorf("after courier change: %+v", got)
	}
}

func TestOrders_List(t *testing.T) {
	testDB.Truncate(t)
	orders := store.NewOrders(testDB.Pool)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		o := fixtureOrder(fmt.Sprintf("CASAFUNKO-list-%d", i))
		o.CreatedAt = o.CreatedAt.Add(time.Duration(i) * time.Second)
		if err := orders.Insert(ctx, o); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		if i == 0 {
			if err := orders.SetStatus(ctx, o.ID, order.StatusPaid, "approved"); err != nil {
				t.Fatalf("SetStatus: %v", err)
			}
		}
	}

	got, total, err := orders.List(ctx, "", 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 {
		t.Errorf("total: got %d, want 5", total)
	}
	if len(got) != 2 {
		t.Fatalf("page size: got %d, want 2", len(got))
	}
	if got[0].Reference != "CASAFUNKO-list-4" {
		t.Errorf("ordering: newest first, got %q", got[0].Reference)
	}

	paid, total, err := orders.List(ctx, string(order.StatusPaid), 10, 0)
	if err != nil {
		t.Fatalf("List paid: %v", err)
	}
	if total != 1 || len(paid) != 1 || paid[0].Reference != "CASAFUNKO-list-0" {
		t.Errorf("status filter: total %d, got %+v", total, paid)
	}
}
