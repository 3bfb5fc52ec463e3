package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/core/service"
)

const (
	maxBodyBytes = 100 << 10

	// ISO-8601 with millisecond precision, always UTC.
	healthTimeLayout = "2006-01-02T15:04:05.000Z"
)

type HTTPHandler struct {
	products *service.ProductService
	now      func() time.Time
}

func NewHTTPHandler(products *service.ProductService) *HTTPHandler {
	return &HTTPHandler{products: products, now: time.Now}
}

// RegisterRoutes mounts the product API on r.
func (h *HTTPHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/category/{category}", h.ListByCategory).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.UpdateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", h.DeleteProduct).Methods(http.MethodDelete)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAll(r.Context())
	if err != nil {
		writeFailure(w, r, "Error loading products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.products.Create(r.Context(), in)
	if err != nil {
		writeFailure(w, r, "Error creating product", err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *HTTPHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := pathVar(w, r, "category")
	if !ok {
		return
	}

	products, err := h.products.GetByCategory(r.Context(), category)
	if err != nil {
		writeFailure(w, r, "Error loading products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}
	category, ok := requireCategory(w, r)
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id, category)
	if err != nil {
		writeFailure(w, r, "Error loading product", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// UpdateProduct replaces the product stored under the path id with the
// request body. A missing record is created.
func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.products.Update(r.Context(), in.Product(id))
	if err != nil {
		writeFailure(w, r, "Error updating product", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathVar(w, r, "id")
	if !ok {
		return
	}
	category, ok := requireCategory(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id, category); err != nil {
		writeFailure(w, r, "Error deleting product", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "Product deleted"})
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(healthTimeLayout),
	})
}

// NotFound answers any request no route claimed.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, errNotFound,
		fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI()))
}

func requireCategory(w http.ResponseWriter, r *http.Request) (string, bool) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, errValidation, "Category query parameter is required")
		return "", false
	}
	return category, true
}

// pathVar returns the decoded route variable name. Routes match on the
// escaped path, so a value may carry an encoded slash.
func pathVar(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, errValidation, fmt.Sprintf("Invalid %s in path: %v", name, err))
		return "", false
	}
	return v, true
}

// decodeInput reads and validates a NewProductInput body. An empty body is
// an empty input. On failure the response has already been written.
func decodeInput(w http.ResponseWriter, r *http.Request) (domain.NewProductInput, bool) {
	var in domain.NewProductInput

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&in)
	if err == nil {
		// Exactly one JSON value is allowed.
		var extra json.RawMessage
		if err = dec.Decode(&extra); err == nil {
			err = errors.New("unexpected data after JSON value")
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload Too Large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return in, false
		}
		writeError(w, http.StatusBadRequest, errValidation, "Invalid JSON body: "+err.Error())
		return in, false
	}

	if err := in.Validate(); err != nil {
		writeFailure(w, r, "Validation error", err)
		return in, false
	}
	return in, true
}
