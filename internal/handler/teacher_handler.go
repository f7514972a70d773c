package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kelas-qna-api/internal/service"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
)

// TeacherHandler handles the teacher profile endpoints.
type TeacherHandler struct {
	service *service.TeacherService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// Me godoc
// @Summary Get the caller's teacher record with classes, plans and lessons
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *TeacherHandler) Me(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.service)
	if !ok {
		return
	}
	data, err := h.service.Me(c.Request.Context(), teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// UpdateMe godoc
// @Summary Update the caller's teacher profile
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateTeacherRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /me [put]
func (h *TeacherHandler) UpdateMe(c *gin.Context) {
	teacher, ok := currentTeacher(c, h.service)
	if !ok {
		return
	}
	var req service.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.service.UpdateMe(c.Request.Context(), teacher, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
