package twin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/travelexperts/catalog/internal/product"
)

// ProductHandler serves the catalog API exactly as the client expects it:
// a JSON array on list, empty bodies on mutations.
type ProductHandler struct {
	store  *Store
	mw     *Middleware
	logger *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(s *Store, mw *Middleware, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{store: s, mw: mw, logger: logger}
}

// Routes mounts /products.
func (h *ProductHandler) Routes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Use(h.mw.RandomFailure)
		r.Use(h.mw.FaultInjection)

		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.store.List())
}

// CreateProduct handles POST /products. The client's ProductId is ignored.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	created := h.store.Create(p.Name)
	h.logger.Info("product created", "id", created.ID, "name", created.Name)
	w.WriteHeader(http.StatusCreated)
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, found := h.store.Get(id)
	if !found {
		Error(w, http.StatusNotFound, "no such product: "+strconv.Itoa(id))
		return
	}
	JSON(w, http.StatusOK, p)
}

// UpdateProduct handles PUT /products/{id}. The path id wins over the body's.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	if !h.store.Update(id, p.Name) {
		Error(w, http.StatusNotFound, "no such product: "+strconv.Itoa(id))
		return
	}
	h.logger.Info("product updated", "id", id, "name", p.Name)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.store.Delete(id) {
		Error(w, http.StatusNotFound, "no such product: "+strconv.Itoa(id))
		return
	}
	h.logger.Info("product deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := product.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (product.Product, bool) {
	var p product.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return p, false
	}
	if err := p.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return p, false
	}
	return p, true
}
