package amazonpay

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
)

// Sandbox is an in-process gateway for local runs and tests. Order
// references are seeded up front; calls record themselves so tests can
// assert the protocol sequence, and any operation can be scripted to fail.
type Sandbox struct {
	mu        sync.Mutex
	details   map[string]application.OrderDetails
	amounts   map[string]int64
	confirmed map[string]bool
	failures  map[string]error
	calls     []string
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		details:   make(map[string]application.OrderDetails),
		amounts:   make(map[string]int64),
		confirmed: make(map[string]bool),
		failures:  make(map[string]error),
	}
}

// SeedOrderReference registers a provider-side order reference with the
// buyer identity and destination the real provider would hold.
func (s *Sandbox) SeedOrderReference(id string, d application.OrderDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[id] = d
}

// FailOn scripts the named operation (GetOrderDetails, SetOrderDetails,
// ConfirmOrder, Authorize) to return err.
func (s *Sandbox) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Calls returns the operations invoked so far, in order.
func (s *Sandbox) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Sandbox) GetOrderDetails(_ context.Context, orderReferenceID, _ string) (application.OrderDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "GetOrderDetails")
	if err := s.failures["GetOrderDetails"]; err != nil {
		return application.OrderDetails{}, err
	}
	d, ok := s.details[orderReferenceID]
	if !ok {
		return application.OrderDetails{}, notFound(orderReferenceID)
	}
	return d, nil
}

func (s *Sandbox) SetOrderDetails(_ context.Context, req application.SetOrderDetailsRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "SetOrderDetails")
	if err := s.failures["SetOrderDetails"]; err != nil {
		return err
	}
	if _, ok := s.details[req.OrderReferenceID]; !ok {
		return notFound(req.OrderReferenceID)
	}
	s.amounts[req.OrderReferenceID] = req.Amount
	return nil
}

func (s *Sandbox) ConfirmOrder(_ context.Context, orderReferenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "ConfirmOrder")
	if err := s.failures["ConfirmOrder"]; err != nil {
		return err
	}
	if _, ok := s.amounts[orderReferenceID]; !ok {
		return &ServiceError{
			StatusCode: http.StatusBadRequest,
			Code:       "OrderReferenceNotModifiable",
			Message:    "order details must be set before confirmation",
		}
	}
	s.confirmed[orderReferenceID] = true
	return nil
}

func (s *Sandbox) Authorize(_ context.Context, req application.AuthorizeRequest) (application.AuthorizeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "Authorize")
	if err := s.failures["Authorize"]; err != nil {
		return application.AuthorizeResult{}, err
	}
	if !s.confirmed[req.OrderReferenceID] {
		return application.AuthorizeResult{}, &ServiceError{
			StatusCode: http.StatusBadRequest,
			Code:       "InvalidOrderReferenceStatus",
			Message:    "order reference is not confirmed",
		}
	}
	return application.AuthorizeResult{
		AuthorizationID: "A" + uuid.NewString(),
		State:           "Closed",
	}, nil
}

func notFound(id string) *ServiceError {
	return &ServiceError{
		StatusCode: http.StatusNotFound,
		Code:       "InvalidOrderReferenceId",
		Message:    "unknown order reference " + id,
	}
}
