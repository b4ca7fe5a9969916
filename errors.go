package folio

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/folio-cms/folio/auth"
	"github.com/folio-cms/folio/cdn"
	"github.com/folio-cms/folio/content"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// apiError writes a JSON error. detail is only exposed outside production.
func (a *App) apiError(c echo.Context, status int, msg string, detail error) error {
	body := errorBody{Error: msg}
	if detail != nil && !a.Config.IsProduction() {
		body.Details = detail.Error()
	}
	return c.JSON(status, body)
}

func tooManyRequests(c echo.Context, resetIn int) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(resetIn))
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"error":      "too many requests",
		"retryAfter": resetIn,
	})
}

// classify maps an error returned by a handler to a status and the message
// clients see.
func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, content.ErrInvalidOrder):
		return http.StatusBadRequest, "invalid order"
	case errors.Is(err, content.ErrValidation), errors.Is(err, cdn.ErrNotImage):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, content.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.As(err, &he):
		switch {
		case he.Code >= 500:
			return http.StatusInternalServerError, "server error"
		case he.Code == http.StatusBadRequest:
			return he.Code, "invalid input"
		}
		return he.Code, strings.ToLower(http.StatusText(he.Code))
	}
	return http.StatusInternalServerError, "server error"
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := classify(err)
	if code >= 500 {
		c.Logger().Errorj(log.JSON{
			"action":    "request_failed",
			"method":    c.Request().Method,
			"uri":       c.Request().RequestURI,
			"error":     err.Error(),
			"requestId": c.Response().Header().Get(echo.HeaderXRequestID),
		})
	}

	if isAPI(c) {
		var detail error
		if code < 500 {
			detail = err
		}
		_ = a.apiError(c, code, msg, detail)
		return
	}

	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, a.Views.NotFound())
	case code >= 500:
		_ = RenderStatus(c, code, a.Views.ServerError())
	default:
		a.Echo.DefaultHTTPErrorHandler(echo.NewHTTPError(code, msg), c)
	}
}
