package waitlist

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/stockpilot/stockpilot/internal/platform/httpx"
)

// Handler exposes the customer-facing subscribe endpoint.
type Handler struct {
	store     StorePort
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(store StorePort, logger *slog.Logger) *Handler {
	return &Handler{store: store, validator: validator.New(), logger: logger}
}

type subscribeRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// Subscribe queues an email for notification when the variant restocks.
// Duplicates are accepted here; the notifier deduplicates on drain.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "variant_id and a valid email are required")
		return
	}

	if err := h.store.ListPush(r.Context(), Key(req.VariantID), req.Email); err != nil {
		h.logger.Error("waitlist subscribe failed",
			slog.String("variant_id", req.VariantID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
