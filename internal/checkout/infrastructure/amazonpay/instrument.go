package amazonpay

import (
	"context"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
	"github.com/sweetshop/checkout-service/pkg/metrics"
)

// InstrumentedGateway counts calls per operation and outcome on top of
// any gateway implementation.
type InstrumentedGateway struct {
	next application.PaymentGateway
	m    *metrics.GatewayMetrics
}

func Instrument(next application.PaymentGateway, m *metrics.GatewayMetrics) *InstrumentedGateway {
	return &InstrumentedGateway{next: next, m: m}
}

func (g *InstrumentedGateway) GetOrderDetails(ctx context.Context, orderReferenceID, accessToken string) (application.OrderDetails, error) {
	d, err := g.next.GetOrderDetails(ctx, orderReferenceID, accessToken)
	g.m.Observe("GetOrderDetails", err)
	return d, err
}

func (g *InstrumentedGateway) SetOrderDetails(ctx context.Context, req application.SetOrderDetailsRequest) error {
	err := g.next.SetOrderDetails(ctx, req)
	g.m.Observe("SetOrderDetails", err)
	return err
}

func (g *InstrumentedGateway) ConfirmOrder(ctx context.Context, orderReferenceID string) error {
	err := g.next.ConfirmOrder(ctx, orderReferenceID)
	g.m.Observe("ConfirmOrder", err)
	return err
}

func (g *InstrumentedGateway) Authorize(ctx context.Context, req application.AuthorizeRequest) (application.AuthorizeResult, error) {
	res, err := g.next.Authorize(ctx, req)
	g.m.Observe("Authorize", err)
	return res, err
}
