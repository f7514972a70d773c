package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kelas-qna-api/internal/middleware"
	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/internal/service"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
	"github.com/noah-isme/kelas-qna-api/pkg/response"
)

// currentTeacher resolves the verified identity on the request to a teacher
// record. On failure it writes the error response and returns false.
func currentTeacher(c *gin.Context, teachers *service.TeacherService) (*models.Teacher, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	teacher, err := teachers.ResolveCaller(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return teacher, true
}
