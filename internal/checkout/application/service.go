package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sweetshop/checkout-service/internal/checkout/domain"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventOrderAuthorized = "OrderAuthorized"
)

type PurchaseResult string

const (
	PurchaseOK PurchaseResult = "OK"
	PurchaseNG PurchaseResult = "NG"
)

// Merchant carries the store-side constants sent to the provider.
type Merchant struct {
	StoreName         string
	CurrencyCode      string
	AuthorizationNote string
}

// Service drives the checkout flow: order creation, token rotation across
// redirect hops, postage calculation, and the purchase state machine with
// its fixed four-call provider sequence.
type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	tokens   TokenRegistry
	gateway  PaymentGateway
	ids      IDSource
	merchant Merchant
}

func NewService(log *slog.Logger, repo OrderRepository, tokens TokenRegistry, gateway PaymentGateway, ids IDSource, merchant Merchant) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		tokens:   tokens,
		gateway:  gateway,
		ids:      ids,
		merchant: merchant,
	}
}

type CreateOrderResult struct {
	Token  string
	AppKey string
}

// CreateOrder builds an order from the requested quantities, persists it,
// and issues the first session token. The returned appKey lets the
// originating client reconcile its session after the provider redirect
// round-trip; unlike the token it never rotates.
func (s *Service) CreateOrder(ctx context.Context, env string, quantities map[string]int) (CreateOrderResult, error) {
	order := domain.NewOrder(uuid.NewString(), env, quantities)
	order.AppKey = s.ids.AppKey()

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:          order.ID,
		Env:              order.Env,
		Price:            order.Price,
		PriceTaxIncluded: order.PriceTaxIncluded,
		Items:            order.Items,
	})
	if err != nil {
		return CreateOrderResult{}, err
	}
	if err := s.repo.SaveWithEvent(ctx, order, EventOrderCreated, payload); err != nil {
		return CreateOrderResult{}, err
	}

	token, err := s.tokens.Issue(ctx, order.ID)
	if err != nil {
		return CreateOrderResult{}, err
	}

	s.log.Info("order created", "order_id", order.ID, "env", env, "price_tax_included", order.PriceTaxIncluded)
	return CreateOrderResult{Token: token, AppKey: order.AppKey}, nil
}

type RotateTokenResult struct {
	Token       string
	OriginToken string
}

// RotateToken retires the presented token and binds a fresh one to the
// same order. Called on every view transition so a token observed at an
// earlier redirect hop cannot be replayed.
func (s *Service) RotateToken(ctx context.Context, token string) (RotateTokenResult, error) {
	next, err := s.tokens.Rotate(ctx, token)
	if err != nil {
		return RotateTokenResult{}, err
	}
	return RotateTokenResult{Token: next, OriginToken: token}, nil
}

// GetOrder resolves an order by its live token without rotating it.
func (s *Service) GetOrder(ctx context.Context, token string) (domain.Order, error) {
	orderID, err := s.tokens.Get(ctx, token)
	if err != nil {
		return domain.Order{}, err
	}
	return s.repo.Get(ctx, orderID)
}

type PostageResult struct {
	Postage    string
	TotalPrice string
}

// CalcPostage fetches the buyer's chosen destination from the provider,
// computes the shipping fee for its region, and fixes the order total.
// A gateway failure propagates before any order mutation.
func (s *Service) CalcPostage(ctx context.Context, token, orderReferenceID, accessToken string) (PostageResult, error) {
	orderID, err := s.tokens.Get(ctx, token)
	if err != nil {
		return PostageResult{}, err
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return PostageResult{}, err
	}

	details, err := s.gateway.GetOrderDetails(ctx, orderReferenceID, accessToken)
	if err != nil {
		return PostageResult{}, err
	}

	order.SetPostage(domain.ComputePostage(details.Destination.StateOrRegion))
	if err := s.repo.Save(ctx, order); err != nil {
		return PostageResult{}, err
	}

	s.log.Info("postage calculated", "order_id", order.ID, "region", details.Destination.StateOrRegion, "postage", *order.Postage)
	return PostageResult{
		Postage:    domain.FormatAmount(*order.Postage),
		TotalPrice: domain.FormatAmount(order.TotalPrice),
	}, nil
}

type PurchaseInput struct {
	Token            string
	AccessToken      string
	OrderReferenceID string
	FuriganaSei      string
	FuriganaMei      string
	Password         string
}

// Purchase runs the purchase state machine. Input validation happens
// first and its outcome is persisted either way; only a fully valid
// request reaches the provider. The four gateway calls are strictly
// ordered and each is a hard dependency on the previous one succeeding.
// Only after all four does the order flip to AUTHORIZED.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	orderID, err := s.tokens.Get(ctx, in.Token)
	if err != nil {
		return PurchaseNG, err
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return PurchaseNG, err
	}
	order.OrderReferenceID = in.OrderReferenceID

	validation := domain.ValidatePurchaseInput(in.FuriganaSei, in.FuriganaMei, in.Password)
	order.BuyerFuriganaSei = in.FuriganaSei
	order.BuyerFuriganaMei = in.FuriganaMei
	order.BuyerPassword = in.Password
	order.FuriganaSeiMsg = validation.FuriganaSeiMsg
	order.FuriganaMeiMsg = validation.FuriganaMeiMsg
	order.PasswordMsg = validation.PasswordMsg

	if err := s.repo.Save(ctx, order); err != nil {
		return PurchaseNG, err
	}
	if !validation.OK() {
		s.log.Info("purchase rejected by validation", "order_id", order.ID)
		return PurchaseNG, nil
	}

	details, err := s.gateway.GetOrderDetails(ctx, in.OrderReferenceID, in.AccessToken)
	if err != nil {
		return PurchaseNG, err
	}
	order.BuyerName = details.Buyer.Name
	order.BuyerEmail = details.Buyer.Email
	order.BuyerPhone = details.Buyer.Phone
	order.DestinationName = details.Destination.Name
	order.DestinationPhone = details.Destination.Phone
	order.DestinationPostalCode = details.Destination.PostalCode
	order.DestinationStateOrRegion = details.Destination.StateOrRegion
	order.DestinationCity = details.Destination.City
	order.DestinationAddress1 = details.Destination.AddressLine1
	order.DestinationAddress2 = details.Destination.AddressLine2
	order.DestinationAddress3 = details.Destination.AddressLine3

	note, err := json.Marshal(order.Items)
	if err != nil {
		return PurchaseNG, err
	}
	if err := s.gateway.SetOrderDetails(ctx, SetOrderDetailsRequest{
		OrderReferenceID: in.OrderReferenceID,
		Amount:           order.TotalPrice,
		CurrencyCode:     s.merchant.CurrencyCode,
		SellerNote:       string(note),
		SellerOrderID:    order.ID,
		StoreName:        s.merchant.StoreName,
	}); err != nil {
		return PurchaseNG, err
	}

	if err := s.gateway.ConfirmOrder(ctx, in.OrderReferenceID); err != nil {
		return PurchaseNG, err
	}

	auth, err := s.gateway.Authorize(ctx, AuthorizeRequest{
		OrderReferenceID:         in.OrderReferenceID,
		AuthorizationReferenceID: s.ids.IdempotencyID(),
		Amount:                   order.TotalPrice,
		CurrencyCode:             s.merchant.CurrencyCode,
		SellerAuthorizationNote:  s.merchant.AuthorizationNote,
		TransactionTimeout:       0,
	})
	if err != nil {
		return PurchaseNG, err
	}

	order.MarkAuthorized()
	payload, err := json.Marshal(domain.OrderAuthorized{
		OrderID:          order.ID,
		OrderReferenceID: order.OrderReferenceID,
		Amount:           order.TotalPrice,
	})
	if err != nil {
		return PurchaseNG, err
	}
	if err := s.repo.SaveWithEvent(ctx, order, EventOrderAuthorized, payload); err != nil {
		return PurchaseNG, err
	}

	s.log.Info("purchase authorized", "order_id", order.ID, "authorization_id", auth.AuthorizationID, "amount", order.TotalPrice)
	return PurchaseOK, nil
}
