package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/upstream"
)

func Test_statusForKind(t *testing.T) {
	tests := []struct {
		kind upstream.Kind
		want int
	}{
		{upstream.AuthExpired, http.StatusUnauthorized},
		{upstream.AuthInvalid, http.StatusBadRequest},
		{upstream.Forbidden, http.StatusForbidden},
		{upstream.NotFound, http.StatusNotFound},
		{upstream.NetworkFailure, http.StatusBadGateway},
		{upstream.ServerError, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForKind(tt.kind))
		})
	}
}

func newErrHandlerContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func Test_appHTTPErrorHandler_validationError(t *testing.T) {
	ctx, rec := newErrHandlerContext()
	handler := newAppHTTPErrorHandler(nil, func() {})

	handler(core.NewValidationError(nil, core.FieldError{
		Field: "new_password", Error: "new password must be different from the old one",
	}), ctx)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"new_password": "new password must be different from the old one"}`, rec.Body.String())
}

func Test_appHTTPErrorHandler_shutdownError(t *testing.T) {
	ctx, rec := newErrHandlerContext()
	var shutdownSignaled bool
	handler := newAppHTTPErrorHandler(nil, func() { shutdownSignaled = true })

	handler(core.NewShutdownError("session missing from request context"), ctx)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal Server Error"}`, rec.Body.String())
	assert.True(t, shutdownSignaled)
}

func Test_appHTTPErrorHandler_forbiddenUpstream(t *testing.T) {
	ctx, rec := newErrHandlerContext()
	handler := newAppHTTPErrorHandler(nil, func() {})

	handler(&upstream.Error{Kind: upstream.Forbidden, Status: http.StatusForbidden, Summary: "permission denied"}, ctx)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error": "permission denied"}`, rec.Body.String())
}
