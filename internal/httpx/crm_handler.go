package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-crm.git/internal/crm"
)

// CRM is the service surface the handlers drive.
type CRM interface {
	CreateCustomer(ctx context.Context, in crm.CustomerInput) (*crm.CustomerResult, error)
	BulkCreateCustomers(ctx context.Context, items []crm.CustomerInput) (*crm.BulkCustomerResult, error)
	CreateProduct(ctx context.Context, in crm.ProductInput) (*crm.ProductResult, error)
	CreateOrder(ctx context.Context, in crm.OrderInput) (*crm.OrderResult, error)
	ReplenishLowStock(ctx context.Context, in crm.ReplenishInput) (*crm.ReplenishResult, error)
	ListCustomers(ctx context.Context, sort string) ([]crm.Customer, error)
	ListProducts(ctx context.Context, sort string) ([]crm.Product, error)
	ListOrders(ctx context.Context, sort string) ([]crm.Order, error)
}

var _ CRM = (*crm.Service)(nil)

type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) ([]byte, bool, error)
	Remember(ctx context.Context, key string, body []byte) error
}

const maxBody = 1 << 20

type CRMHandler struct {
	Service CRM
	Idem    IdempotencyStore // optional, enables Idempotency-Key on POST /orders
	Logger  *slog.Logger
}

type BulkCustomersReq struct {
	Customers []crm.CustomerInput `json:"customers"`
}

func (h *CRMHandler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.createCustomer)
		r.Post("/bulk", h.bulkCreateCustomers)
		r.Get("/", h.listCustomers)
	})
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Post("/replenish", h.replenish)
		r.Get("/", h.listProducts)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON body. An empty body leaves v untouched when allowEmpty.
func decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *CRMHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *CRMHandler) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeErr(w, http.StatusInternalServerError, "internal error")
}

func createdOr400(ok bool) int {
	if ok {
		return http.StatusCreated
	}
	return http.StatusBadRequest
}

func (h *CRMHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in crm.CustomerInput
	if err := decode(r, &in, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.Service.CreateCustomer(r.Context(), in)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, createdOr400(res.Success), res)
}

// bulkCreateCustomers always answers 200: the body reports per-item outcome.
func (h *CRMHandler) bulkCreateCustomers(w http.ResponseWriter, r *http.Request) {
	var req BulkCustomersReq
	if err := decode(r, &req, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.Service.BulkCreateCustomers(r.Context(), req.Customers)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CRMHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in crm.ProductInput
	if err := decode(r, &in, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.Service.CreateProduct(r.Context(), in)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, createdOr400(res.Success), res)
}

func (h *CRMHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in crm.OrderInput
	if err := decode(r, &in, false); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.Idem != nil {
		if body, ok, err := h.Idem.Lookup(ctx, key); err != nil {
			h.logger().Warn("idempotency lookup", "key", key, "err", err)
		} else if ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
			return
		}
	}

	res, err := h.Service.CreateOrder(ctx, in)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if key != "" && h.Idem != nil {
		// best effort: if this fails a retry creates a new order
		if err := h.Idem.Remember(ctx, key, body); err != nil {
			h.logger().Warn("idempotency remember", "key", key, "err", err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *CRMHandler) replenish(w http.ResponseWriter, r *http.Request) {
	var in crm.ReplenishInput
	if err := decode(r, &in, true); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.Service.ReplenishLowStock(r.Context(), in)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, res)
}

func list[T any](h *CRMHandler, fn func(context.Context, string) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		out, err := fn(ctx, r.URL.Query().Get("sort"))
		if errors.Is(err, crm.ErrInvalidSort) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			h.internal(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *CRMHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	list(h, h.Service.ListCustomers)(w, r)
}

func (h *CRMHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	list(h, h.Service.ListProducts)(w, r)
}

func (h *CRMHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list(h, h.Service.ListOrders)(w, r)
}
