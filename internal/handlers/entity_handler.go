package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
)

// EntityHandler manages teachers and students outside a session.
type EntityHandler struct {
	BaseHandler
	service services.EntityService
}

func NewEntityHandler(service services.EntityService, logger utils.Logger) *EntityHandler {
	return &EntityHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== TEACHERS =====

// @Router /teachers [get]
func (h *EntityHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.service.ListTeachers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"teachers": teachers,
		"count":    len(teachers),
	})
}

// @Router /teachers [post]
func (h *EntityHandler) CreateTeacher(c *gin.Context) {
	var req models.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}
	h.LogRequest(c, "Creating teacher")

	teacher, err := h.service.CreateTeacher(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"teacher": teacher})
}

// @Router /teachers/{id} [delete]
func (h *EntityHandler) DeleteTeacher(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting teacher", "teacher_id", id)

	if err := h.service.DeleteTeacher(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== STUDENTS =====

// @Router /students [get]
func (h *EntityHandler) ListStudents(c *gin.Context) {
	students, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"count":    len(students),
	})
}

// @Router /students [post]
func (h *EntityHandler) CreateStudent(c *gin.Context) {
	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}
	h.LogRequest(c, "Creating student")

	student, err := h.service.CreateStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// @Router /students/{id} [delete]
func (h *EntityHandler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting student", "student_id", id)

	if err := h.service.DeleteStudent(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /students/{id}/statistics [get]
func (h *EntityHandler) GetStudentStatistics(c *gin.Context) {
	stats, err := h.service.GetStudentStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}
