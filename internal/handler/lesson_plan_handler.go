package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kelas-qna-api/internal/service"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
)

// LessonPlanHandler handles lesson plan and question endpoints.
type LessonPlanHandler struct {
	teachers *service.TeacherService
	service  *service.LessonPlanService
}

// NewLessonPlanHandler constructs a lesson plan handler.
func NewLessonPlanHandler(teachers *service.TeacherService, svc *service.LessonPlanService) *LessonPlanHandler {
	return &LessonPlanHandler{teachers: teachers, service: svc}
}

// List godoc
// @Summary List the caller's lesson plans with questions
// @Tags LessonPlans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /lesson-plans [get]
func (h *LessonPlanHandler) List(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	plans, err := h.service.List(c.Request.Context(), teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Put godoc
// @Summary Create or update a lesson plan
// @Tags LessonPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param payload body service.PutLessonPlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id} [put]
func (h *LessonPlanHandler) Put(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	var req service.PutLessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.service.Put(c.Request.Context(), teacher, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a lesson plan
// @Tags LessonPlans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Success 204
// @Router /lesson-plans/{id} [delete]
func (h *LessonPlanHandler) Delete(c *gin.Context) {
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

// PutQuestion godoc
// @Summary Create or update a question on a plan
// @Tags LessonPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param qid path string true "Question ID"
// @Param payload body service.PutQuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id}/questions/{qid} [put]
func (h *LessonPlanHandler) PutQuestion(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	var req service.PutQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.service.PutQuestion(c.Request.Context(), teacher, c.Param("id"), c.Param("qid"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// DeleteQuestion godoc
// @Summary Remove a question from a plan
// @Tags LessonPlans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson plan ID"
// @Param qid path string true "Question ID"
// @Success 204
// @Router /lesson-plans/{id}/questions/{qid} [delete]
func (h *LessonPlanHandler) DeleteQuestion(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	if err := h.service.DeleteQuestion(c.Request.Context(), teacher, c.Param("id"), c.Param("qid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
