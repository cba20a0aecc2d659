package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/logger"
	"protexwear-api/internal/metrics"
	"protexwear-api/internal/order"
	"protexwear-api/internal/payment/webhook"
	"protexwear-api/internal/shipping"
	"protexwear-api/internal/utils"

	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

var errInvalidBody = apperror.Validation("Invalid request body")

type Handler struct {
	OrderSvc order.Service
	Engine   shipping.Engine
	Webhook  *webhook.Handler
	Metrics  *metrics.Webhook
}

func NewHandler(orderSvc order.Service, engine shipping.Engine, wh *webhook.Handler, m *metrics.Webhook) *Handler {
	if m == nil {
		m = &metrics.Webhook{}
	}
	return &Handler{
		OrderSvc: orderSvc,
		Engine:   engine,
		Webhook:  wh,
		Metrics:  m,
	}
}

// decodeJSON rejects unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(apperror.KindValidation, errInvalidBody.Message, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// writeError maps an error kind to a status. Internal errors are logged in
// full and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	utils.WriteJSONError(w, apperror.PublicMessage(err), status)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"webhooks": h.Metrics.Snapshot(),
	})
}
