package api

import (
	"net/http"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/shipping"
	"protexwear-api/internal/utils"
)

type ShippingQuoteResponse struct {
	Success            bool                   `json:"success"`
	Error              string                 `json:"error,omitempty"`
	ShippingOptions    []ShippingOptionDTO    `json:"shippingOptions,omitempty"`
	CalculationDetails *CalculationDetailsDTO `json:"calculationDetails,omitempty"`
}

func (h *Handler) CalculateShipping(w http.ResponseWriter, r *http.Request) {
	var req shipping.Request
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeShippingError(w, r, err)
		return
	}

	quote, err := h.Engine.Calculate(r.Context(), req)
	if err != nil {
		h.writeShippingError(w, r, err)
		return
	}

	details := MapBreakdownToDTO(quote.Breakdown)
	utils.WriteJSON(w, http.StatusOK, ShippingQuoteResponse{
		Success:            true,
		ShippingOptions:    MapOptionsToDTO(quote.Options),
		CalculationDetails: &details,
	})
}

func (h *Handler) writeShippingError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, status, ShippingQuoteResponse{
		Success: false,
		Error:   apperror.PublicMessage(err),
	})
}
