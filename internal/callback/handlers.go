package callback

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/payop-gateway/internal/common"
	"github.com/noah-isme/payop-gateway/internal/obs"
	"github.com/noah-isme/payop-gateway/internal/order"
)

const channelPush = "push"
const channelReturn = "return"

// Handler exposes the notification endpoints: the signed IPN and the two
// unsigned browser returns.
type Handler struct {
	Validator   *Validator
	Processor   *Processor
	Replay      *redis.Client
	ReplayTTL   time.Duration
	ThankYouURL string
	CancelURL   string
	Logger      zerolog.Logger
}

// IPN processes the signed server-to-server notification. Authentication
// failures answer 400 so the processor can alert and retry per its policy;
// negative outcomes and duplicates answer 200 so it stops redelivering.
func (h *Handler) IPN(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Validator == nil || h.Processor == nil {
		common.JSONError(w, http.StatusInternalServerError, "GATEWAY_NOT_CONFIGURED", "notification endpoint unavailable", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to parse notification fields", nil)
		return
	}
	notification := ParsePush(r.Form)
	deliveryID := uuid.NewString()
	logger := h.Logger.With().
		Str("delivery_id", deliveryID).
		Str("order_id", notification.OrderID).
		Str("channel", channelPush).
		Logger()

	// The replay key is only written after a delivery fully settles, so a
	// delivery that errored keeps its key free and the processor's retry
	// goes through validation and settlement again.
	replayKey := ""
	if h.Replay != nil && h.ReplayTTL > 0 && notification.OrderID != "" && notification.Signature != "" {
		replayKey = "ipn:" + common.Sha256Hex(notification.OrderID+":"+notification.Status+":"+notification.Signature)
		seen, err := h.Replay.Exists(r.Context(), replayKey).Result()
		if err != nil {
			// Replay store down: fall through, the processor's own
			// status check keeps settlement idempotent.
			logger.Warn().Err(err).Msg("replay guard unavailable")
		} else if seen > 0 {
			logger.Info().Msg("duplicate notification suppressed")
			h.count(channelPush, "replay")
			common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
	}

	result, snap, err := h.Validator.Validate(r.Context(), notification)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			logger.Warn().Msg("notification references unknown order")
			h.count(channelPush, "unknown_order")
			common.JSONAppError(w, common.NewAppError("ORDER_NOT_FOUND", "unknown order", http.StatusBadRequest, err))
			return
		}
		logger.Error().Err(err).Msg("notification validation failed")
		h.count(channelPush, "error")
		common.JSONAppError(w, common.NewAppError("VALIDATION_ERROR", "unable to validate notification", http.StatusInternalServerError, err))
		return
	}

	switch result {
	case MissingOrderID:
		h.count(channelPush, result.String())
		common.JSONError(w, http.StatusBadRequest, "MISSING_ORDER_ID", "empty order id", nil)
	case InvalidSignature:
		logger.Warn().Msg("notification signature rejected")
		if obs.SignatureFailuresTotal != nil {
			obs.SignatureFailuresTotal.Inc()
		}
		h.count(channelPush, result.String())
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "signature verification failed", nil)
	case StatusNotSuccess:
		logger.Info().Str("status", notification.Status).Msg("negative payment outcome acknowledged")
		h.count(channelPush, result.String())
		common.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	case Valid:
		settled, err := h.Processor.CompletePayment(r.Context(), snap)
		if err != nil {
			logger.Error().Err(err).Msg("settlement failed")
			h.count(channelPush, "error")
			common.JSONAppError(w, common.NewAppError("SETTLEMENT_ERROR", "unable to settle order", http.StatusInternalServerError, err))
			return
		}
		if settled {
			logger.Info().Msg("order settled")
		}
		h.markDelivered(r.Context(), replayKey, deliveryID, logger)
		h.count(channelPush, result.String())
		common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// markDelivered records a fully processed delivery so later redeliveries of
// the same body short-circuit. Failures only cost an extra validation pass.
func (h *Handler) markDelivered(ctx context.Context, key, deliveryID string, logger zerolog.Logger) {
	if h.Replay == nil || key == "" {
		return
	}
	if err := h.Replay.SetNX(ctx, key, deliveryID, h.ReplayTTL).Err(); err != nil {
		logger.Warn().Err(err).Msg("record delivery in replay guard")
	}
}

// Success handles the unsigned success return. The buyer lands on the
// thank-you page; settlement stays reserved for the signed push path.
func (h *Handler) Success(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Processor == nil {
		common.JSONError(w, http.StatusInternalServerError, "GATEWAY_NOT_CONFIGURED", "return endpoint unavailable", nil)
		return
	}
	ret := ParseReturn(r.URL.Query(), ReturnSuccess)
	if ret.OrderID == "" {
		h.count(channelReturn, "missing_order_id")
		common.JSONError(w, http.StatusBadRequest, "MISSING_ORDER_ID", "empty order id", nil)
		return
	}
	if err := h.Processor.AcknowledgeSuccessReturn(r.Context(), ret); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			h.count(channelReturn, "unknown_order")
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "unknown order", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", ret.OrderID).Msg("success return failed")
		h.count(channelReturn, "error")
		common.JSONAppError(w, common.NewAppError("RETURN_ERROR", "unable to process return", http.StatusInternalServerError, err))
		return
	}
	h.count(channelReturn, "success")
	http.Redirect(w, r, h.ThankYouURL, http.StatusFound)
}

// Fail handles the unsigned fail return and sends the buyer back to the
// cancellation flow.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Processor == nil {
		common.JSONError(w, http.StatusInternalServerError, "GATEWAY_NOT_CONFIGURED", "return endpoint unavailable", nil)
		return
	}
	ret := ParseReturn(r.URL.Query(), ReturnFail)
	if ret.OrderID == "" {
		h.count(channelReturn, "missing_order_id")
		common.JSONError(w, http.StatusBadRequest, "MISSING_ORDER_ID", "empty order id", nil)
		return
	}
	cancelURL, err := h.Processor.AcknowledgeFailReturn(r.Context(), ret)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			h.count(channelReturn, "unknown_order")
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "unknown order", nil)
			return
		}
		h.Logger.Error().Err(err).Str("order_id", ret.OrderID).Msg("fail return failed")
		h.count(channelReturn, "error")
		common.JSONAppError(w, common.NewAppError("RETURN_ERROR", "unable to process return", http.StatusInternalServerError, err))
		return
	}
	if cancelURL == "" {
		cancelURL = h.CancelURL
	}
	h.count(channelReturn, "fail")
	http.Redirect(w, r, cancelURL, http.StatusFound)
}

func (h *Handler) count(channel, result string) {
	if obs.CallbackTotal != nil {
		obs.CallbackTotal.WithLabelValues(channel, result).Inc()
	}
}
