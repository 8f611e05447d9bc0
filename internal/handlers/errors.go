package handlers

import (
	"errors"
	"fmt"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/studio-finance-api/internal/services"
)

var statusByKind = map[services.ErrorKind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConflict:     http.StatusConflict,
	services.KindInvalidState: http.StatusUnprocessableEntity,
	services.KindExternal:     http.StatusBadGateway,
	services.KindInternal:     http.StatusInternalServerError,
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Kind    services.ErrorKind `json:"kind"`
	Message string             `json:"message"`
}

// respondError writes err as {"error": {"kind", "message"}} with the status
// matching its kind. Server-side failures are attached to the context so the
// request logger records the cause, and reported to Sentry when enabled.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Kind: kind, Message: message}})
}

// bindError reports a malformed request body
func bindError(c *gin.Context, err error) {
	respondError(c, badRequest("invalid request body: %v", err))
}

func attachment(c *gin.Context, disposition, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	c.Data(http.StatusOK, contentType, data)
}
