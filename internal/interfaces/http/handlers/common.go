// Package handlers implements the REST API surface of the assessment
// continuity engine. Handlers translate HTTP requests into application and
// domain service calls and shape the JSON responses.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	apperrors "github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ErrorResponse is the JSON envelope for all error replies.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ListResponse wraps paginated collection replies.
type ListResponse struct {
	Items      interface{}        `json:"items"`
	Pagination *common.Pagination `json:"pagination,omitempty"`
}

// respondError maps an error to its HTTP status and writes the error
// envelope. Server-side failures are masked with the generic message so
// internals never leak to API clients.
func respondError(c *gin.Context, logger logging.Logger, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code)}
	if appErr, ok := err.(*apperrors.AppError); ok && apperrors.IsClientError(code) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	} else {
		resp.Message = apperrors.DefaultMessageForCode(code)
	}

	if apperrors.IsServerError(code) && logger != nil {
		logger.Error("request failed",
			logging.String("path", c.FullPath()),
			logging.String("code", string(code)),
			logging.Err(err),
		)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": resp})
}

// respondValidation is a shortcut for request binding and parameter errors.
func respondValidation(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrorResponse{
		Code:    string(apperrors.ErrCodeValidation),
		Message: message,
	}})
}

// pathID extracts a non-empty path parameter as a typed ID.
func pathID(c *gin.Context, name string) (common.ID, bool) {
	raw := c.Param(name)
	if raw == "" {
		respondValidation(c, name+" is required")
		return "", false
	}
	return common.ID(raw), true
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads page and page_size query parameters with sane
// bounds. Out-of-range values fall back to defaults rather than erroring.
func parsePagination(c *gin.Context) (page, pageSize int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(c, "page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
