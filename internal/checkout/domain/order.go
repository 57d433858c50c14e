package domain

import "time"

type OrderStatus string

const (
	StatusCreated    OrderStatus = "CREATED"
	StatusAuthorized OrderStatus = "AUTHORIZED"
)

// taxRate is the Japanese consumption tax applied to the item subtotal.
// The tax-included price is truncated to whole yen, not rounded.
const taxRate = 1.08

type LineItem struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func (li LineItem) Total() int64 {
	return int64(li.Quantity) * li.UnitPrice
}

// Order is the checkout aggregate. Amounts are in yen (minor units).
// Buyer and destination fields default to empty strings; they are filled
// from the payment provider during purchase. Postage is nil until a
// postage calculation has run, and TotalPrice is meaningful only once
// Postage is set.
type Order struct {
	ID               string
	Env              string
	Items            []LineItem
	Price            int64
	PriceTaxIncluded int64
	Postage          *int64
	TotalPrice       int64
	Status           OrderStatus

	// Provider-side correlation handle, attached at purchase time.
	OrderReferenceID string
	// Application correlation key, set at creation and never rotated.
	AppKey string

	BuyerName  string
	BuyerEmail string
	BuyerPhone string

	DestinationName          string
	DestinationPhone         string
	DestinationPostalCode    string
	DestinationStateOrRegion string
	DestinationCity          string
	DestinationAddress1      string
	DestinationAddress2      string
	DestinationAddress3      string

	BuyerFuriganaSei string
	BuyerFuriganaMei string
	BuyerPassword    string

	FuriganaSeiMsg string
	FuriganaMeiMsg string
	PasswordMsg    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder builds an order from per-SKU quantities. SKUs with a quantity
// of zero or less are skipped; unknown SKUs are ignored. Line items keep
// catalog order so the provider-facing note is stable.
func NewOrder(id, env string, quantities map[string]int) Order {
	var items []LineItem
	for _, ci := range Catalog {
		qty := quantities[ci.SKU]
		if qty <= 0 {
			continue
		}
		items = append(items, LineItem{
			SKU:       ci.SKU,
			Name:      ci.Name,
			Quantity:  qty,
			UnitPrice: ci.UnitPrice,
		})
	}

	var price int64
	for _, item := range items {
		price += item.Total()
	}

	now := time.Now().UTC()
	return Order{
		ID:               id,
		Env:              env,
		Items:            items,
		Price:            price,
		PriceTaxIncluded: int64(float64(price) * taxRate),
		Status:           StatusCreated,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// SetPostage records the computed shipping fee and derives the total.
func (o *Order) SetPostage(postage int64) {
	o.Postage = &postage
	o.TotalPrice = o.PriceTaxIncluded + postage
	o.UpdatedAt = time.Now().UTC()
}

// MarkAuthorized flips the order to AUTHORIZED. The caller is responsible
// for only doing this after the full gateway sequence has succeeded.
func (o *Order) MarkAuthorized() {
	o.Status = StatusAuthorized
	o.UpdatedAt = time.Now().UTC()
}
