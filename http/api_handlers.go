package http

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"claimguard/apperrors"
	"claimguard/claim"
	"claimguard/ml"
)

func handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, claim.JSONSchema())
}

func (h *Handlers) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.models.Status())
}

func (h *Handlers) handleModelReload(w http.ResponseWriter, r *http.Request) {
	err := h.models.Reload(r.Context())
	st := h.models.Status()

	switch {
	case errors.Is(err, ml.ErrAlreadyReady):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":  map[string]string{"message": err.Error()},
			"status": st,
		})
	case err != nil:
		h.logger.Warn("model reload failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		respondJSON(w, statusFor(apperrors.CodeOf(err)), map[string]interface{}{
			"error":  asAppError(err),
			"status": st,
		})
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": st})
	}
}

func (h *Handlers) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, apperrors.NewInvalidRecord("(root)", err.Error()))
		return
	}

	rec, err := claim.ValidateJSON(body)
	if err != nil {
		respondError(w, err)
		return
	}

	res, err := h.adapter.For("api").Submit(r.Context(), rec)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
