package application

import (
	"context"
	"errors"

	"github.com/sweetshop/checkout-service/internal/checkout/domain"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrOrderNotFound = errors.New("order not found")
)

type OrderRepository interface {
	Save(ctx context.Context, o domain.Order) error
	// SaveWithEvent persists the order and records an outbox event in the
	// same write, so the event is never published for a lost update.
	SaveWithEvent(ctx context.Context, o domain.Order, eventType string, payload []byte) error
	Get(ctx context.Context, id string) (domain.Order, error)
}

// TokenRegistry maps single-use opaque tokens to order ids. At most one
// live token exists per order; Rotate retires the old token atomically so
// there is no window where both the old and new token fail to resolve.
type TokenRegistry interface {
	Issue(ctx context.Context, orderID string) (string, error)
	Get(ctx context.Context, token string) (orderID string, err error)
	Rotate(ctx context.Context, token string) (newToken string, err error)
}

// IDSource produces the non-token identifiers the checkout flow needs.
// Implementations must be cryptographically unguessable; tests substitute
// a deterministic source.
type IDSource interface {
	// AppKey is the non-rotating correlation key handed to the client at
	// order creation.
	AppKey() string
	// IdempotencyID is a fresh per-attempt authorization reference. It is
	// never reused across attempts.
	IdempotencyID() string
}

type Buyer struct {
	Name  string
	Email string
	Phone string
}

type Destination struct {
	Name          string
	Phone         string
	PostalCode    string
	StateOrRegion string
	City          string
	AddressLine1  string
	AddressLine2  string
	AddressLine3  string
}

type OrderDetails struct {
	Buyer       Buyer
	Destination Destination
}

type SetOrderDetailsRequest struct {
	OrderReferenceID string
	Amount           int64
	CurrencyCode     string
	SellerNote       string
	SellerOrderID    string
	StoreName        string
}

type AuthorizeRequest struct {
	OrderReferenceID         string
	AuthorizationReferenceID string
	Amount                   int64
	CurrencyCode             string
	SellerAuthorizationNote  string
	// TransactionTimeout of 0 makes the provider answer synchronously.
	TransactionTimeout int
}

type AuthorizeResult struct {
	AuthorizationID string
	State           string
}

// PaymentGateway is the provider protocol client. All four calls are
// synchronous round-trips; failures surface as provider service errors
// and are never retried here.
type PaymentGateway interface {
	GetOrderDetails(ctx context.Context, orderReferenceID, accessToken string) (OrderDetails, error)
	SetOrderDetails(ctx context.Context, req SetOrderDetailsRequest) error
	ConfirmOrder(ctx context.Context, orderReferenceID string) error
	Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error)
}
