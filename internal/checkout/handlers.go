package checkout

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/payop-gateway/internal/common"
	"github.com/noah-isme/payop-gateway/internal/order"
	"github.com/noah-isme/payop-gateway/internal/payop"
	"github.com/noah-isme/payop-gateway/internal/signature"
)

// Handler serves the merchant-facing checkout surface: a JSON endpoint that
// returns the hosted-page redirect and an HTML receipt page with a pay
// button for storefronts that link buyers straight to the gateway.
type Handler struct {
	Store   order.Store
	Builder *payop.Builder
	Logger  zerolog.Logger
}

var payPage = template.Must(template.New("pay").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Order {{.OrderID}}</title>
</head>
<body>
<h1>Order {{.OrderID}}</h1>
<p>Total: {{.Amount}} {{.Currency}}</p>
<p><a href="{{.RedirectURL}}" rel="noreferrer">Pay now</a></p>
{{if .CancelURL}}<p><a href="{{.CancelURL}}">Cancel order</a></p>{{end}}
</body>
</html>
`))

type payPageData struct {
	OrderID     string
	Amount      string
	Currency    string
	RedirectURL string
	CancelURL   string
}

// CreatePayment handles POST /v1/orders/{orderID}/payment and answers the
// hosted payment page URL as JSON.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	snap, redirectURL, appErr := h.redirect(r)
	if appErr != nil {
		common.JSONAppError(w, appErr)
		return
	}
	h.Logger.Info().Str("order_id", snap.ID).Msg("payment redirect issued")
	common.JSON(w, http.StatusOK, map[string]string{"redirectUrl": redirectURL})
}

// PayPage handles GET /v1/orders/{orderID}/pay and renders the receipt page
// with a link to the hosted payment page.
func (h *Handler) PayPage(w http.ResponseWriter, r *http.Request) {
	snap, redirectURL, appErr := h.redirect(r)
	if appErr != nil {
		common.JSONAppError(w, appErr)
		return
	}
	amount, err := signature.FormatAmount(snap.Amount)
	if err != nil {
		common.JSONAppError(w, common.NewAppError("CONFIG_ERROR", "order amount unreadable", http.StatusInternalServerError, err))
		return
	}
	cancelURL, err := h.Store.CancelURL(r.Context(), snap.ID)
	if err != nil {
		// The page is still useful without the cancel link.
		h.Logger.Warn().Err(err).Str("order_id", snap.ID).Msg("cancel url lookup failed")
		cancelURL = ""
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = payPage.Execute(w, payPageData{
		OrderID:     snap.ID,
		Amount:      amount,
		Currency:    snap.Currency,
		RedirectURL: redirectURL,
		CancelURL:   cancelURL,
	})
}

// redirect loads the order, refuses unpayable states and obtains the
// hosted-page URL. Failures come back as AppErrors carrying the taxonomy
// code and the HTTP status to render.
func (h *Handler) redirect(r *http.Request) (order.Snapshot, string, *common.AppError) {
	if h == nil || h.Store == nil || h.Builder == nil {
		return order.Snapshot{}, "", common.NewAppError("GATEWAY_NOT_CONFIGURED", "checkout unavailable", http.StatusInternalServerError, nil)
	}
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		return order.Snapshot{}, "", common.NewAppError("MISSING_ORDER_ID", "empty order id", http.StatusBadRequest, nil)
	}

	snap, err := h.Store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return order.Snapshot{}, "", common.NewAppError("ORDER_NOT_FOUND", "unknown order", http.StatusNotFound, err)
		}
		h.Logger.Error().Err(err).Str("order_id", orderID).Msg("order lookup failed")
		return order.Snapshot{}, "", common.NewAppError("STORE_ERROR", "unable to load order", http.StatusInternalServerError, err)
	}
	if snap.Status.Terminal() {
		return order.Snapshot{}, "", common.NewAppError("ORDER_NOT_PAYABLE", "order already settled", http.StatusConflict, nil)
	}

	redirectURL, err := h.Builder.CreateRedirect(r.Context(), snap)
	if err != nil {
		switch {
		case errors.Is(err, payop.ErrRequestRejected):
			h.Logger.Warn().Str("order_id", orderID).Msg("processor rejected payment request")
			return order.Snapshot{}, "", common.NewAppError("REQUEST_REJECTED", "payment processor rejected the request", http.StatusBadGateway, err)
		case errors.Is(err, payop.ErrTransport):
			h.Logger.Error().Err(err).Str("order_id", orderID).Msg("processor unreachable")
			return order.Snapshot{}, "", common.NewAppError("TRANSPORT_ERROR", "payment processor unreachable", http.StatusBadGateway, err)
		default:
			h.Logger.Error().Err(err).Str("order_id", orderID).Msg("payment request build failed")
			return order.Snapshot{}, "", common.NewAppError("CONFIG_ERROR", "unable to build payment request", http.StatusInternalServerError, err)
		}
	}
	return snap, redirectURL, nil
}
