package http

import (
	"errors"
	"net/http"

	"github.com/YelzhanWeb/lunchmate/internal/adapter/logger"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnknownTimeZone),
		errors.Is(err, domain.ErrInvalidSlot):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsBusinessRule(err),
		errors.Is(err, domain.ErrTerminalState),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, lgr logger.Logger, action string, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "Validation failed"
		for _, f := range verr.Fields {
			resp.Errors = append(resp.Errors, ValidationError{Field: f.Field, Message: f.Message})
		}
	}

	requestID := logger.RequestID(c.Request.Context())
	if status == http.StatusInternalServerError {
		lgr.Error(action, "Request failed", requestID, map[string]interface{}{"path": c.Request.URL.Path}, err)
		resp.Error = "Internal server error"
	} else {
		lgr.Debug(action, err.Error(), requestID, map[string]interface{}{"status": status})
	}

	c.JSON(status, resp)
}

// respondBindError reports a malformed body, listing the rejected fields when
// the binding validator produced them.
func respondBindError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "Invalid request body"}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = "Validation failed"
		for _, fe := range verrs {
			resp.Errors = append(resp.Errors, ValidationError{Field: fe.Field(), Message: "failed on " + fe.Tag()})
		}
	}
	c.JSON(http.StatusBadRequest, resp)
}

// dateParam reads a yyyy-mm-dd path or query value.
func dateParam(c *gin.Context, raw string) (domain.Date, bool) {
	d, err := domain.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid date",
			Errors: []ValidationError{{Field: "date", Message: "must be formatted as yyyy-mm-dd"}},
		})
		return domain.Date{}, false
	}
	return d, true
}
