package shipping

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownRegion is returned for a region outside the fixed table.
	ErrUnknownRegion = errors.New("unknown shipping region")
	// ErrUnknownCourier is returned when the courier id is not offered for
	// the selected region.
	ErrUnknownCourier = errors.New("unknown courier for region")
)

// Region selects which courier table applies to a checkout.
type Region string

const (
	RegionLocal    Region = "local"
	RegionNational Region = "national"
)

// The local region is the store's own city; city and department are fixed
// and locked for local deliveries.
const (
	LocalCity       = "Manizales"
	LocalDepartment = "Caldas"
)

// Courier is a fixed catalog entry: a shipping option with a flat price in
// whole currency units. Couriers are not persisted; they are selected per
// checkout session.
type Courier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

var courierTable = map[Region][]Courier{
	RegionLocal: {
		{ID: "mensajeria-local", Name: "Mensajería Local Manizales", Price: 5000},
		{ID: "recogida", Name: "Recogida en Tienda", Price: 0},
	},
	RegionNational: {
		{ID: "servientrega", Name: "Servientrega", Price: 15000},
		{ID: "interrapidisimo", Name: "Inter Rapidísimo", Price: 14000},
		{ID: "coordinadora", Name: "Coordinadora", Price: 16000},
	},
}

// CouriersFor returns the fixed courier list for a region.
func CouriersFor(region Region) ([]Courier, error) {
	couriers, ok := courierTable[region]
	if !ok {
		return nil, ErrUnknownRegion
	}
	out := make([]Courier, len(couriers))
	copy(out, couriers)
	return out, nil
}

// Resolve returns the courier with the given id for the region.
func Resolve(region Region, courierID string) (Courier, error) {
	couriers, ok := courierTable[region]
	if !ok {
		return Courier{}, ErrUnknownRegion
	}
	for _, c := range couriers {
		if c.ID == courierID {
			return c, nil
		}
	}
	return Courier{}, ErrUnknownCourier
}

// Customer mirrors the checkout contact fields subject to validation.
type Customer struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	Department string
}

// Normalize applies the region rules to customer input: the local region
// auto-fills and locks city and department to the store's own values.
func Normalize(region Region, c Customer) Customer {
	if region == RegionLocal {
		c.City = LocalCity
		c.Department = LocalDepartment
	}
	return c
}

// ValidateCustomer checks the required customer fields after normalization.
// It returns a field -> message map; an empty map means the input is valid.
// This is user-input validation, not a system fault.
func ValidateCustomer(region Region, c Customer) map[string]string {
	c = Normalize(region, c)

	problems := make(map[string]string)
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			problems[field] = "required"
		}
	}
	require("name", c.Name)
	require("email", c.Email)
	require("phone", c.Phone)
	require("address", c.Address)
	require("city", c.City)
	require("department", c.Department)
	return problems
}
