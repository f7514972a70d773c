package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kelas-qna-api/internal/service"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
)

// ClassHandler handles class and roster endpoints.
type ClassHandler struct {
	teachers *service.TeacherService
	service  *service.ClassService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(teachers *service.TeacherService, svc *service.ClassService) *ClassHandler {
	return &ClassHandler{teachers: teachers, service: svc}
}

// List godoc
// @Summary List the caller's classes with rosters
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	classes, err := h.service.List(c.Request.Context(), teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Put godoc
// @Summary Create or update a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.PutClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Put(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	var req service.PutClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.service.Put(c.Request.Context(), teacher, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete a class
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 204
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
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

// PutStudent godoc
// @Summary Create or update a roster entry
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param sid path string true "Student ID"
// @Param payload body service.PutStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students/{sid} [put]
func (h *ClassHandler) PutStudent(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	var req service.PutStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.service.PutStudent(c.Request.Context(), teacher, c.Param("id"), c.Param("sid"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// DeleteStudent godoc
// @Summary Remove a roster entry
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param sid path string true "Student ID"
// @Success 204
// @Router /classes/{id}/students/{sid} [delete]
func (h *ClassHandler) DeleteStudent(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.teachers)
	if !ok {
		return
	}
	if err := h.service.DeleteStudent(c.Request.Context(), teacher, c.Param("id"), c.Param("sid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
