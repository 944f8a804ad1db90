package common_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/payop-gateway/internal/common"
)

func TestAppErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	appErr := common.NewAppError("STORE_ERROR", "unable to load order", http.StatusInternalServerError, cause)

	require.Equal(t, "connection reset", appErr.Error())
	require.ErrorIs(t, appErr, cause)
	require.True(t, common.IsAppError(appErr))
	require.False(t, common.IsAppError(cause))
}

func TestAppErrorWithoutCauseUsesMessage(t *testing.T) {
	appErr := common.NewAppError("ORDER_NOT_FOUND", "unknown order", http.StatusNotFound, nil)
	require.Equal(t, "unknown order", appErr.Error())
	require.NoError(t, appErr.Unwrap())
}

func TestJSONAppErrorRendersEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	common.JSONAppError(rec, common.NewAppError("ORDER_NOT_FOUND", "unknown order", http.StatusNotFound, errors.New("no rows")))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "ORDER_NOT_FOUND")
	require.Contains(t, body, "unknown order")
	// The wrapped cause must never leak to the client.
	require.NotContains(t, body, "no rows")
}

func TestJSONAppErrorDefaultsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	common.JSONAppError(rec, &common.AppError{Code: "SETTLEMENT_ERROR", Message: "unable to settle order"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	common.JSONAppError(rec, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
