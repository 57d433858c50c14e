package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
	"github.com/sweetshop/checkout-service/internal/checkout/infrastructure/amazonpay"
	"github.com/sweetshop/checkout-service/pkg/metrics"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	metrics *metrics.ServerMetrics
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, m *metrics.ServerMetrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		metrics: m,
		tracer:  otel.Tracer("checkout-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/{env}/orders", h.instrument("create_order", h.createOrder))
	r.Post("/tokens/rotate", h.instrument("rotate_token", h.rotateToken))
	r.Post("/postage", h.instrument("calc_postage", h.calcPostage))
	r.Post("/purchase", h.instrument("purchase", h.purchase))
	r.Get("/orders", h.instrument("get_order", h.getOrder))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

type createOrderReq struct {
	Quantities map[string]int `json:"quantities"`
}

type createOrderResp struct {
	Token  string `json:"token"`
	AppKey string `json:"appKey"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	for sku, qty := range req.Quantities {
		if qty < 0 {
			http.Error(w, "negative quantity for "+sku, http.StatusBadRequest)
			return
		}
	}

	res, err := h.service.CreateOrder(ctx, chi.URLParam(r, "env"), req.Quantities)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, createOrderResp{Token: res.Token, AppKey: res.AppKey})
}

type rotateTokenReq struct {
	Token string `json:"token"`
}

type rotateTokenResp struct {
	Token       string `json:"token"`
	OriginToken string `json:"originToken"`
}

func (h *Handler) rotateToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RotateToken")
	defer span.End()

	var req rotateTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	res, err := h.service.RotateToken(ctx, req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rotateTokenResp{Token: res.Token, OriginToken: res.OriginToken})
}

type calcPostageReq struct {
	Token            string `json:"token"`
	OrderReferenceID string `json:"orderReferenceId"`
	AccessToken      string `json:"accessToken"`
}

type calcPostageResp struct {
	Postage    string `json:"postage"`
	TotalPrice string `json:"totalPrice"`
}

func (h *Handler) calcPostage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CalcPostage")
	defer span.End()

	var req calcPostageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	res, err := h.service.CalcPostage(ctx, req.Token, req.OrderReferenceID, req.AccessToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, calcPostageResp{Postage: res.Postage, TotalPrice: res.TotalPrice})
}

type purchaseReq struct {
	Token            string `json:"token"`
	AccessToken      string `json:"accessToken"`
	OrderReferenceID string `json:"orderReferenceId"`
	FuriganaSei      string `json:"furiganaSei"`
	FuriganaMei      string `json:"furiganaMei"`
	Password         string `json:"pwd"`
}

type purchaseResp struct {
	Result string `json:"result"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Purchase")
	defer span.End()

	var req purchaseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Purchase(ctx, application.PurchaseInput{
		Token:            req.Token,
		AccessToken:      req.AccessToken,
		OrderReferenceID: req.OrderReferenceID,
		FuriganaSei:      req.FuriganaSei,
		FuriganaMei:      req.FuriganaMei,
		Password:         req.Password,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, purchaseResp{Result: string(result)})
}

type orderResp struct {
	ID               string `json:"id"`
	Env              string `json:"env"`
	Price            int64  `json:"price"`
	PriceTaxIncluded int64  `json:"priceTaxIncluded"`
	Postage          *int64 `json:"postage"`
	TotalPrice       int64  `json:"totalPrice"`
	Status           string `json:"status"`
	FuriganaSeiMsg   string `json:"furiganaSeiMsg"`
	FuriganaMeiMsg   string `json:"furiganaMeiMsg"`
	PasswordMsg      string `json:"passwordMsg"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusBadRequest)
		return
	}

	o, err := h.service.GetOrder(ctx, token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orderResp{
		ID:               o.ID,
		Env:              o.Env,
		Price:            o.Price,
		PriceTaxIncluded: o.PriceTaxIncluded,
		Postage:          o.Postage,
		TotalPrice:       o.TotalPrice,
		Status:           string(o.Status),
		FuriganaSeiMsg:   o.FuriganaSeiMsg,
		FuriganaMeiMsg:   o.FuriganaMeiMsg,
		PasswordMsg:      o.PasswordMsg,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var serviceErr *amazonpay.ServiceError
	switch {
	case errors.Is(err, application.ErrTokenNotFound), errors.Is(err, application.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &serviceErr):
		h.log.Error("gateway error", "code", serviceErr.Code, "err", serviceErr.Message)
		http.Error(w, "payment provider error", http.StatusBadGateway)
	default:
		h.log.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// instrument wraps a handler with request count and latency metrics.
func (h *Handler) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		h.metrics.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
