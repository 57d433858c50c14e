package domain

// Lifecycle events relayed to the event stream via the outbox.

type OrderCreated struct {
	OrderID          string     `json:"order_id"`
	Env              string     `json:"env"`
	Price            int64      `json:"price"`
	PriceTaxIncluded int64      `json:"price_tax_included"`
	Items            []LineItem `json:"items"`
}

type OrderAuthorized struct {
	OrderID          string `json:"order_id"`
	OrderReferenceID string `json:"order_reference_id"`
	Amount           int64  `json:"amount"`
}
