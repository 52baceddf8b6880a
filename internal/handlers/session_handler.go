package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

type SessionHandler struct {
	BaseHandler
	service services.SessionService
}

func NewSessionHandler(service services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateSession starts a new evaluation workflow at step 1
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	h.LogRequest(c, "Creating evaluation session")

	view, err := h.service.Create(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting evaluation session", "session_id", id)

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitModelAnswer accepts either a multipart "file" for extraction or pasted "text"
// @Router /sessions/{id}/model-answer [post]
func (h *SessionHandler) SubmitModelAnswer(c *gin.Context) {
	id := c.Param("id")

	file, ok, err := readUpload(c, "file")
	if err != nil {
		h.uploadFailed(c, err)
		return
	}

	var in workflow.ModelAnswerInput
	if ok {
		h.LogRequest(c, "Uploading model answer", "session_id", id, "file", file.Name)
		in.File = &file
	} else {
		var req validator.ModelAnswerTextRequest
		if err := c.ShouldBind(&req); err != nil {
			h.badRequest(c, "Invalid request body", err)
			return
		}
		h.LogRequest(c, "Submitting pasted model answer", "session_id", id)
		in.Text = req.Text
	}

	// Extraction outlives a dropped connection; the gateway timeout still applies.
	view, err := h.service.SubmitModelAnswer(context.WithoutCancel(c.Request.Context()), id, in)
	h.respond(c, view, err)
}

// @Router /sessions/{id}/back [post]
func (h *SessionHandler) Back(c *gin.Context) {
	view, err := h.service.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// @Router /sessions/{id}/student-file [post]
func (h *SessionHandler) AttachStudentFile(c *gin.Context) {
	id := c.Param("id")

	file, ok, err := readUpload(c, "file")
	if err != nil {
		h.uploadFailed(c, err)
		return
	}
	if !ok {
		file = models.FileHandle{}
	}
	h.LogRequest(c, "Attaching student answer", "session_id", id, "file", file.Name)

	view, err := h.service.AttachStudentFile(c.Request.Context(), id, file)
	h.respond(c, view, err)
}

// @Router /sessions/{id}/details [put]
func (h *SessionHandler) UpdateDetails(c *gin.Context) {
	var req services.UpdateDetailsRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	view, err := h.service.UpdateDetails(c.Request.Context(), c.Param("id"), &req)
	h.respond(c, view, err)
}

// CreateTeacher creates a teacher and selects it in the session
// @Router /sessions/{id}/teachers [post]
func (h *SessionHandler) CreateTeacher(c *gin.Context) {
	id := c.Param("id")

	var req models.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}
	h.LogRequest(c, "Creating teacher inline", "session_id", id)

	resp, err := h.service.CreateTeacher(c.Request.Context(), id, &req)
	if err != nil {
		h.respondWithSession(c, id, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Router /sessions/{id}/students [post]
func (h *SessionHandler) CreateStudent(c *gin.Context) {
	id := c.Param("id")

	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}
	h.LogRequest(c, "Creating student inline", "session_id", id)

	resp, err := h.service.CreateStudent(c.Request.Context(), id, &req)
	if err != nil {
		h.respondWithSession(c, id, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Submit sends the draft for scoring and returns the completed session
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Submitting evaluation", "session_id", id)

	view, err := h.service.Submit(context.WithoutCancel(c.Request.Context()), id)
	if err != nil {
		h.respondWithSession(c, id, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Router /sessions/{id}/reset [post]
func (h *SessionHandler) Reset(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Resetting evaluation session", "session_id", id)

	view, err := h.service.Reset(c.Request.Context(), id)
	h.respond(c, view, err)
}

// @Router /sessions/{id}/report [get]
func (h *SessionHandler) Report(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.service.Report(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	writeReport(c, "evaluation-report-"+id+".html", doc)
}

// respond writes the session view, attaching it to the error body on failure.
func (h *SessionHandler) respond(c *gin.Context, view *services.SessionView, err error) {
	if err != nil {
		var details interface{}
		if view != nil {
			details = view
		}
		h.respondServiceError(c, err, details)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) respondWithSession(c *gin.Context, id string, err error) {
	view, getErr := h.service.Get(c.Request.Context(), id)
	if getErr != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondServiceError(c, err, view)
}

// writeReport serves an HTML report inline, or as a download with ?download=true.
func writeReport(c *gin.Context, filename string, doc []byte) {
	if c.Query("download") == "true" || c.Query("download") == "1" {
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}
