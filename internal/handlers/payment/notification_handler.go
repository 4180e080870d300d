package payment

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	paymentservice "github.com/addispay/telebirr-gateway/internal/services/payment"
	apperrors "github.com/addispay/telebirr-gateway/pkg/errors"
)

// NotificationHandler receives asynchronous payment callbacks from the
// provider. The provider retries until it sees HTTP 200, so the response
// contract is strict: 200 {"status":"success"} on any validly signed
// payload, 400 {"status":"error"} otherwise.
type NotificationHandler struct {
	service *paymentservice.Service
	logger  *zap.Logger
}

// NewNotificationHandler creates the callback handler
func NewNotificationHandler(service *paymentservice.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the callback endpoint on mux
func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /callbacks/telebirr/notify", h.HandleNotify)
}

// HandleNotify parses a form or JSON notification body and hands it to
// the payment service
// Endpoint: POST /callbacks/telebirr/notify
func (h *NotificationHandler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	notifyID := uuid.NewString()

	payload, err := parseNotifyBody(r)
	if err != nil {
		h.logger.Warn("Unparsable notification body",
			zap.String("notify_id", notifyID),
			zap.Error(err),
		)
		writeNotifyError(w)
		return
	}

	if err := h.service.HandleNotification(r.Context(), payload); err != nil {
		var validationErr *apperrors.ValidationError
		var securityErr *apperrors.SecurityError
		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("Notification rejected: missing field",
				zap.String("notify_id", notifyID),
				zap.String("field", validationErr.Field),
			)
		case errors.As(err, &securityErr):
			h.logger.Warn("Notification rejected: invalid signature",
				zap.String("notify_id", notifyID),
			)
		default:
			h.logger.Error("Notification processing failed",
				zap.String("notify_id", notifyID),
				zap.Error(err),
			)
		}
		writeNotifyError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// parseNotifyBody accepts either an urlencoded form or a JSON object.
// Form values arrive as strings; JSON is decoded with json.Number so
// numeric fields survive canonicalization unchanged.
func parseNotifyBody(r *http.Request) (map[string]any, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	if mediaType == "application/json" {
		dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
		dec.UseNumber()
		var payload map[string]any
		if err := dec.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	payload := make(map[string]any, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			payload[k] = vs[0]
		}
	}
	return payload, nil
}

func writeNotifyError(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error"})
}
