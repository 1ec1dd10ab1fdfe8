package server

import (
	goerrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// errorEnvelope is the JSON body written for every failed request.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorEnvelope(c echo.Context, status int, msg string) errorEnvelope {
	return errorEnvelope{Error: errorBody{
		Message:   msg,
		Status:    status,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	}}
}

// errorHandler maps echo.HTTPError and untyped errors onto the JSON error envelope.
// Internal error text is never exposed to clients.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(status)
		}
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, newErrorEnvelope(c, status, msg))
	}
	if writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
