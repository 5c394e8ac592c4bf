package handlers

import (
	"net/http"
	"strconv"

	"sales-service/internal/catalog"
	"sales-service/internal/models"

	"go.uber.org/zap"
)

type CustomerHandler struct {
	svc    *catalog.CustomerService
	logger *zap.Logger
}

func NewCustomerHandler(svc *catalog.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{svc: svc, logger: logger}
}

type CustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *CustomerHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get customers")
		return
	}

	writeJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get customer")
		return
	}

	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "name is required", nil)
		return
	}

	customer, err := h.svc.GetByName(r.Context(), name)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get customer")
		return
	}

	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	c := models.Customer{Name: req.Name, Phone: req.Phone}

	if err := h.svc.Create(r.Context(), &c); err != nil {
		writeServiceError(w, h.logger, err, "failed to create customer")
		return
	}

	w.Header().Set("Location", "/api/customers/"+strconv.FormatInt(c.ID, 10))
	writeJSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req CustomerRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	c := models.Customer{ID: id, Name: req.Name, Phone: req.Phone}

	if err := h.svc.Update(r.Context(), &c); err != nil {
		writeServiceError(w, h.logger, err, "failed to update customer")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete customer")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
