package handlers

import (
	"errors"
	"net/http"

	"skillswap/internal/domain/apperror"
	"skillswap/pkg/logger"
	"skillswap/pkg/validator"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// FieldError points at the request field an error is about
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StatusForKind maps an error kind onto its HTTP status.
func StatusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindAuthentication:
		return http.StatusUnauthorized
	case apperror.KindAuthorization:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err using its kind. Unclassified errors are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		_ = c.Error(err)
		logger.Error("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: "Internal server error",
			Code:    "internal",
		})
		return
	}

	resp := APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    string(appErr.Kind),
	}
	if appErr.Field != "" {
		resp.Errors = []FieldError{{Field: appErr.Field, Message: appErr.Message}}
	}
	c.JSON(StatusForKind(appErr.Kind), resp)
}

// bindJSON decodes the body into dst and answers 400 itself when that fails.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validatorv10.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "Validation failed",
				Code:    string(apperror.KindValidation),
				Errors:  validator.FormatValidationError(verrs),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request format",
			Code:    string(apperror.KindValidation),
			Errors:  err.Error(),
		})
		return false
	}
	return true
}
