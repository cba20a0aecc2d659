package api

import (
	"net/http"

	"protexwear-api/internal/order"
	"protexwear-api/internal/utils"

	"github.com/shopspring/decimal"
)

type CheckoutItemRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type CheckoutRequest struct {
	Items           []CheckoutItemRequest  `json:"items"`
	CustomerEmail   string                 `json:"customerEmail"`
	CustomerName    string                 `json:"customerName,omitempty"`
	UserID          string                 `json:"userId,omitempty"`
	ShippingAddress *order.ShippingAddress `json:"shippingAddress,omitempty"`
	ShippingMethod  string                 `json:"shippingMethod,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]order.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.CheckoutItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	res, err := h.OrderSvc.CreateCheckout(r.Context(), order.CheckoutRequest{
		Items:           items,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, CheckoutResponse{
		SessionID: res.SessionID,
		URL:       res.URL,
		OrderID:   res.OrderID,
	})
}
