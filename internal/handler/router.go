package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/kelas-qna-api/internal/middleware"
	"github.com/noah-isme/kelas-qna-api/internal/service"
	"github.com/noah-isme/kelas-qna-api/pkg/storage"
)

// RouterConfig groups the collaborators Routes mounts.
type RouterConfig struct {
	Identity  service.IdentityProvider
	Teachers  *service.TeacherService
	Classes   *service.ClassService
	Plans     *service.LessonPlanService
	Lessons   *service.LessonService
	Responses *service.ResponseService
	Metrics   *service.MetricsService
	Blobs     storage.BlobStore
	Signer    *storage.SignedURLSigner
	Logger    *zap.Logger
}

// Routes mounts the full API surface onto the router.
func Routes(r *gin.Engine, cfg RouterConfig) {
	teacherHandler := NewTeacherHandler(cfg.Teachers)
	classHandler := NewClassHandler(cfg.Teachers, cfg.Classes)
	planHandler := NewLessonPlanHandler(cfg.Teachers, cfg.Plans)
	lessonHandler := NewLessonHandler(cfg.Teachers, cfg.Lessons)
	publicHandler := NewPublicHandler(cfg.Lessons, cfg.Responses)

	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", NewMetricsHandler(cfg.Metrics).Scrape)
	}
	if cfg.Blobs != nil && cfg.Signer != nil {
		r.GET("/media/:token", NewMediaHandler(cfg.Blobs, cfg.Signer, cfg.Logger).Serve)
	}

	api := r.Group("/api/v1")

	public := api.Group("/public")
	public.GET("/lessons/:id", publicHandler.GetLesson)
	public.POST("/lessons/:id/responses", publicHandler.SubmitResponse)
	public.POST("/lessons/:id/started", publicHandler.StudentStarted)

	secured := api.Group("", middleware.Auth(cfg.Identity))
	secured.GET("/me", teacherHandler.Me)
	secured.PUT("/me", teacherHandler.UpdateMe)

	secured.GET("/classes", classHandler.List)
	secured.PUT("/classes/:id", classHandler.Put)
	secured.DELETE("/classes/:id", classHandler.Delete)
	secured.PUT("/classes/:id/students/:sid", classHandler.PutStudent)
	secured.DELETE("/classes/:id/students/:sid", classHandler.DeleteStudent)

	secured.GET("/lesson-plans", planHandler.List)
	secured.PUT("/lesson-plans/:id", planHandler.Put)
	secured.DELETE("/lesson-plans/:id", planHandler.Delete)
	secured.PUT("/lesson-plans/:id/questions/:qid", planHandler.PutQuestion)
	secured.DELETE("/lesson-plans/:id/questions/:qid", planHandler.DeleteQuestion)

	secured.GET("/lessons", lessonHandler.List)
	secured.PUT("/lessons", lessonHandler.Create)
	secured.GET("/lessons/:id", lessonHandler.Get)
	secured.PUT("/lessons/:id", lessonHandler.Put)
	secured.DELETE("/lessons/:id", lessonHandler.Delete)
	secured.GET("/lessons/:id/export", lessonHandler.Export)
}
