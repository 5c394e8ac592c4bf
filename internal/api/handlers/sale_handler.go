package handlers

import (
	"net/http"
	"strconv"
	"time"

	"sales-service/internal/sales"

	"go.uber.org/zap"
)

type SaleHandler struct {
	svc    *sales.Service
	logger *zap.Logger
}

func NewSaleHandler(svc *sales.Service, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{svc: svc, logger: logger}
}

func (h *SaleHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req sales.RegisterSaleRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	sale, err := h.svc.RegisterSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to register sale")
		return
	}

	w.Header().Set("Location", "/api/sales/"+strconv.FormatInt(sale.ID, 10))
	writeJSON(w, http.StatusCreated, sale)
}

func (h *SaleHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSales(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get sales")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *SaleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get sale")
		return
	}

	writeJSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) GetByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := idParam(w, r, "customerID")
	if !ok {
		return
	}

	list, err := h.svc.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get sales")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *SaleHandler) GetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	list, err := h.svc.ListByProduct(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get sales")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *SaleHandler) GetByCustomerAndProduct(w http.ResponseWriter, r *http.Request) {
	customerID, ok := idParam(w, r, "customerID")
	if !ok {
		return
	}
	productID, ok := idParam(w, r, "productID")
	if !ok {
		return
	}

	list, err := h.svc.ListByCustomerAndProduct(r.Context(), customerID, productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get sales")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// GetByDate matches the sale timestamp exactly. The date query parameter is
// RFC 3339 with optional fractional seconds.
func (h *SaleHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	soldAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "date must be an RFC 3339 timestamp", map[string]string{"date": raw})
		return
	}

	list, err := h.svc.ListBySoldAt(r.Context(), soldAt)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get sales")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete sale")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (h *SaleHandler) ProductMovements(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	movements, err := h.svc.ListMovements(r.Context(), productID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get stock movements")
		return
	}

	writeJSON(w, http.StatusOK, movements)
}
