package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

type ErrorResponse = models.ErrorResponse

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming handler call with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c, h.logger).Error(msg, args...)
}

// ===== ERROR HANDLING =====

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	h.respondServiceError(c, err, nil)
}

// respondServiceError maps service errors to HTTP status codes. details, when
// set, is returned alongside so clients can redraw from it.
func (h *BaseHandler) respondServiceError(c *gin.Context, err error, details interface{}) {
	if ve, ok := validator.AsValidationErrors(err); ok {
		resp := h.errorResponse(c, "VALIDATION_FAILED", "Validation failed", details)
		if len(ve) > 0 {
			resp.Error = ve[0].Message
		}
		resp.ValidationErrors = toValidationResponses(ve)
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		resp := h.errorResponse(c, "SESSION_NOT_FOUND", "Session not found", details)
		resp.Error = "Session not found"
		c.JSON(http.StatusNotFound, resp)
	case errors.Is(err, services.ErrNotFound):
		resp := h.errorResponse(c, "NOT_FOUND", "Resource not found", details)
		resp.Error = gateway.MessageOf(err)
		c.JSON(http.StatusNotFound, resp)
	case errors.Is(err, services.ErrValidationFailed):
		resp := h.errorResponse(c, "VALIDATION_FAILED", "Validation failed", details)
		resp.Error = err.Error()
		c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, services.ErrConflict):
		resp := h.errorResponse(c, "CONFLICT", "Request conflicts with the current step", details)
		resp.Error = err.Error()
		c.JSON(http.StatusConflict, resp)
	case errors.Is(err, services.ErrUpstream):
		status := http.StatusBadGateway
		msg := gateway.MessageOf(err)
		if msg == gateway.TimeoutErrorMessage {
			status = http.StatusGatewayTimeout
		}
		resp := h.errorResponse(c, "UPSTREAM_ERROR", "Evaluation service error", details)
		resp.Error = msg
		c.JSON(status, resp)
	default:
		h.LogError(c, err, "Unexpected service error")
		resp := h.errorResponse(c, "INTERNAL_ERROR", "Internal server error", details)
		resp.Error = "Internal server error"
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func (h *BaseHandler) badRequest(c *gin.Context, msg string, err error) {
	resp := h.errorResponse(c, "BAD_REQUEST", msg, nil)
	resp.Error = msg
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func (h *BaseHandler) errorResponse(c *gin.Context, code, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	}
}

func toValidationResponses(ve validator.ValidationErrors) []models.ValidationErrorResponse {
	out := make([]models.ValidationErrorResponse, 0, len(ve))
	for _, e := range ve {
		value := ""
		if s, ok := e.Value.(string); ok {
			value = s
		}
		out = append(out, models.ValidationErrorResponse{
			Field:   e.Field,
			Message: e.Message,
			Value:   value,
			Code:    e.Rule,
		})
	}
	return out
}

// ===== UPLOADS =====

// uploadFailed answers a request whose file could not be read. Bodies cut off
// by the upload cap mid-stream get 413 like those rejected up front.
func (h *BaseHandler) uploadFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		payloadTooLarge(c)
		return
	}
	h.badRequest(c, "Could not read uploaded file", err)
}

// readUpload loads a multipart file into memory. ok is false when the field is absent.
func readUpload(c *gin.Context, field string) (file models.FileHandle, ok bool, err error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return models.FileHandle{}, false, nil
		}
		return models.FileHandle{}, false, err
	}
	content, err := readFileHeader(fh)
	if err != nil {
		return models.FileHandle{}, false, err
	}
	return models.FileHandle{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, true, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
