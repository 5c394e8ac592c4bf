package handlers

import (
	"net/http"
	"strconv"

	"sales-service/internal/catalog"
	"sales-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductHandler struct {
	svc    *catalog.ProductService
	logger *zap.Logger
}

func NewProductHandler(svc *catalog.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, logger: logger}
}

type ProductCreateRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// ProductUpdateRequest has no stock: stock only changes through sales.
type ProductUpdateRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ProductNameRequest struct {
	Name string `json:"name"`
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Search returns every product whose name contains the given text, ignoring
// case. No match is an empty list.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req ProductNameRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	products, err := h.svc.Search(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to search products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetByExactName(w http.ResponseWriter, r *http.Request) {
	var req ProductNameRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	product, err := h.svc.GetByName(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductCreateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	}

	if err := h.svc.Create(r.Context(), &p); err != nil {
		writeServiceError(w, h.logger, err, "failed to create product")
		return
	}

	w.Header().Set("Location", "/api/products/"+strconv.FormatInt(p.ID, 10))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req ProductUpdateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		ID:    id,
		Name:  req.Name,
		Price: req.Price,
	}

	if err := h.svc.Update(r.Context(), &p); err != nil {
		writeServiceError(w, h.logger, err, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
