package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
	"github.com/yanqian/ai-booksum/internal/domain/crossquery"
	apperrors "github.com/yanqian/ai-booksum/pkg/errors"
)

// statusClientClosedRequest mirrors the nginx convention for runs the
// caller cancelled mid-flight.
const statusClientClosedRequest = 499

// Handler wires the HTTP transport to the pipeline services.
type Handler struct {
	summarySvc booksum.Service
	querySvc   crossquery.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(summarySvc booksum.Service, querySvc crossquery.Service, logger *slog.Logger) *Handler {
	return &Handler{
		summarySvc: summarySvc,
		querySvc:   querySvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// SummarizeBook runs the full condensation pipeline for one book.
func (h *Handler) SummarizeBook(c *gin.Context) {
	var req booksum.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}

	result := h.summarySvc.SummarizeBook(c.Request.Context(), req)
	if !result.Success {
		c.JSON(statusForCode(result.ErrorCode), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// QueryBooks answers one question across several pre-selected excerpts.
func (h *Handler) QueryBooks(c *gin.Context) {
	var req crossquery.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}

	resp, err := h.querySvc.Query(c.Request.Context(), req)
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" {
			code = "query_failed"
		}
		abortWithError(c, NewHTTPError(statusForCode(code), code, err.Error(), err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BackendStatus reports inference backend reachability and models.
func (h *Handler) BackendStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.summarySvc.Status(c.Request.Context()))
}

func statusForCode(code string) int {
	switch code {
	case booksum.CodeInvalidInput:
		return http.StatusBadRequest
	case booksum.CodeBackendUnreachable, booksum.CodeModelUnavailable:
		return http.StatusServiceUnavailable
	case booksum.CodeBackendHTTP, booksum.CodeChunkFailed, booksum.CodeSynthesisFailed:
		return http.StatusBadGateway
	case booksum.CodeCancelled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
