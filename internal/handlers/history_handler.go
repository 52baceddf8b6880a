package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/evaluation-console/internal/history"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type HistoryHandler struct {
	BaseHandler
	service   services.HistoryService
	validator *validator.Validator
}

func NewHistoryHandler(service services.HistoryService, validator *validator.Validator, logger utils.Logger) *HistoryHandler {
	return &HistoryHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// ListEvaluations returns the filtered history, the teacher filter options and the match count
// @Param student query string false "Student name substring (case-insensitive)"
// @Param roll query string false "Roll number substring"
// @Param teacher query string false "Exact teacher name, or all"
// @Param date query string false "all, today, last-7-days, last-30-days"
// @Router /evaluations [get]
func (h *HistoryHandler) ListEvaluations(c *gin.Context) {
	criteria, ok := h.bindCriteria(c)
	if !ok {
		return
	}

	resp, err := h.service.List(c.Request.Context(), criteria)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Router /evaluations/recent [get]
func (h *HistoryHandler) RecentEvaluations(c *gin.Context) {
	var q validator.RecentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "Invalid query parameters", err)
		return
	}
	if err := h.validator.ValidateRecentQuery(&q); err != nil {
		h.handleServiceError(c, err)
		return
	}

	records, err := h.service.Recent(c.Request.Context(), q.Limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"evaluations": records,
		"count":       len(records),
	})
}

// @Router /evaluations/{id} [get]
func (h *HistoryHandler) GetEvaluation(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluation": rec})
}

// @Router /evaluations/{id} [delete]
func (h *HistoryHandler) DeleteEvaluation(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting evaluation", "evaluation_id", id)

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /evaluations/{id}/report [get]
func (h *HistoryHandler) Report(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.service.Report(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	writeReport(c, "evaluation-report-"+id+".html", doc)
}

// Export writes the filtered history as an XLSX workbook
// @Router /evaluations/export.xlsx [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	criteria, ok := h.bindCriteria(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Exporting evaluations")

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), &buf, criteria); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="evaluations.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// @Router /evaluations/refresh [post]
func (h *HistoryHandler) Refresh(c *gin.Context) {
	h.LogRequest(c, "Refreshing evaluation history")

	if err := h.service.Refresh(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp, err := h.service.List(c.Request.Context(), history.MatchAll())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HistoryHandler) bindCriteria(c *gin.Context) (history.Criteria, bool) {
	var q validator.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "Invalid query parameters", err)
		return history.Criteria{}, false
	}
	if err := h.validator.ValidateHistoryQuery(&q); err != nil {
		h.handleServiceError(c, err)
		return history.Criteria{}, false
	}
	bucket, err := history.ParseDateBucket(q.Date)
	if err != nil {
		h.badRequest(c, "Invalid date filter", err)
		return history.Criteria{}, false
	}
	return history.Criteria{
		StudentName: q.Student,
		RollNumber:  q.Roll,
		Teacher:     q.Teacher,
		Date:        bucket,
	}, true
}
