package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kelas-qna-api/internal/service"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
)

// LessonHandler handles teacher-side lesson endpoints.
type LessonHandler struct {
	teachers *service.TeacherService
	service  *service.LessonService
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(teachers *service.TeacherService, svc *service.LessonService) *LessonHandler {
	return &LessonHandler{teachers: teachers, service: svc}
}

// List godoc
// @Summary List the caller's lessons
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	lessons, err := h.service.List(c.Request.Context(), teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Get godoc
// @Summary Get a lesson with class, plan and responses joined
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	lesson, err := h.service.Get(c.Request.Context(), teacher, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Create a lesson under a generated short id
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PutLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /lessons [put]
func (h *LessonHandler) Create(c *gin.Context) {
	h.put(c, "")
}

// Put godoc
// @Summary Update a lesson; newly locked questions trigger categorization
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Param payload body service.PutLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Put(c *gin.Context) {
	h.put(c, c.Param("id"))
}

func (h *LessonHandler) put(c *gin.Context, lessonID string) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	var req service.PutLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.Put(c.Request.Context(), teacher, lessonID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if lessonID == "" {
		status = http.StatusCreated
	}
	response.JSON(c, status, lesson, nil)
}

// Delete godoc
// @Summary Soft-delete a lesson
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), teacher, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the lesson's analysis as CSV or PDF
// @Tags Lessons
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /lessons/{id}/export [get]
func (h *LessonHandler) Export(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	data, contentType, err := h.service.Export(c.Request.Context(), teacher, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("lesson-%s.%s", c.Param("id"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
