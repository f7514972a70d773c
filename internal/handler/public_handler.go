package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kelas-qna-api/internal/service"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
)

// PublicHandler handles the student-facing lesson endpoints. No auth: students
// identify a lesson by its short id plus the owning teacher's email from the
// shared link.
type PublicHandler struct {
	lessons   *service.LessonService
	responses *service.ResponseService
}

// NewPublicHandler constructs a public handler.
func NewPublicHandler(lessons *service.LessonService, responses *service.ResponseService) *PublicHandler {
	return &PublicHandler{lessons: lessons, responses: responses}
}

type startedRequest struct {
	StudentName string `json:"student_name"`
}

// GetLesson godoc
// @Summary Get the student view of a lesson
// @Tags Public
// @Produce json
// @Param id path string true "Lesson ID"
// @Param teacher_email query string true "Owning teacher's email"
// @Success 200 {object} response.Envelope
// @Router /public/lessons/{id} [get]
func (h *PublicHandler) GetLesson(c *gin.Context) {
	lesson, err := h.lessons.Public(c.Request.Context(), c.Query("teacher_email"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// SubmitResponse godoc
// @Summary Submit a student answer
// @Tags Public
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param teacher_email query string true "Owning teacher's email"
// @Param payload body service.SubmitResponseRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /public/lessons/{id}/responses [post]
func (h *PublicHandler) SubmitResponse(c *gin.Context) {
	var req service.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submitted, err := h.responses.Submit(c.Request.Context(), c.Query("teacher_email"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submitted)
}

// StudentStarted godoc
// @Summary Record that a student opened the lesson
// @Tags Public
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param teacher_email query string true "Owning teacher's email"
// @Param payload body startedRequest true "Student name"
// @Success 204
// @Router /public/lessons/{id}/started [post]
func (h *PublicHandler) StudentStarted(c *gin.Context) {
	var req startedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.lessons.StudentStarted(c.Request.Context(), c.Query("teacher_email"), c.Param("id"), req.StudentName); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
