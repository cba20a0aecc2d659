package api

import (
	"net/http"
	"strconv"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/order"
	"protexwear-api/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderEventRequest struct {
	Event string `json:"event"`
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderSvc.GetOrderDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, MapOrderToDTO(o))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.OrderSvc.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"orders": MapOrdersToDTO(orders),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *Handler) ApplyOrderEvent(w http.ResponseWriter, r *http.Request) {
	var req OrderEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tr, err := h.OrderSvc.ApplyAdminEvent(r.Context(), chi.URLParam(r, "id"), order.Event(req.Event))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, MapTransitionToDTO(tr))
}

func parseListFilter(r *http.Request) (order.ListFilter, error) {
	q := r.URL.Query()
	var filter order.ListFilter

	if raw := q.Get("status"); raw != "" {
		st, ok := order.ParseStatus(raw)
		if !ok {
			return filter, apperror.Validation("Invalid status filter")
		}
		filter.Status = &st
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return filter, apperror.Validation("Invalid limit")
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		return filter, apperror.Validation("Invalid offset")
	}
	return filter, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
