package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/internal/repository"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

type summaryEnqueuer interface {
	Enqueue(teacherID, lessonID, responseID string) error
}

// SubmitResponseRequest is the public student submission payload.
type SubmitResponseRequest struct {
	QuestionID          string `json:"question_id" validate:"required"`
	StudentID           string `json:"student_id"`
	StudentName         string `json:"student_name" validate:"required,max=100"`
	ResponseText        string `json:"response_text"`
	ResponseImageBase64 string `json:"response_image_base64"`
}

// ResponseService accepts student submissions and schedules summarization.
type ResponseService struct {
	teachers       *repository.TeacherRepository
	lessons        *repository.LessonRepository
	responses      *repository.ResponseRepository
	summarizer     summaryEnqueuer
	cache          *CacheService
	validator      *validator.Validate
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewResponseService constructs a ResponseService over the document store.
func NewResponseService(store docstore.Store, summarizer summaryEnqueuer, cache *CacheService, validate *validator.Validate, logger *zap.Logger, maxUploadBytes int64) *ResponseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseService{
		teachers:       repository.NewTeacherRepository(store),
		lessons:        repository.NewLessonRepository(store),
		responses:      repository.NewResponseRepository(store),
		summarizer:     summarizer,
		cache:          cache,
		validator:      validate,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Submit records a student answer. Submissions to a locked question are
// rejected before anything is written. Text-only answers get their summary
// inline; drawings are summarized asynchronously.
func (s *ResponseService) Submit(ctx context.Context, teacherEmail, lessonID string, req SubmitResponseRequest) (*models.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}
	req.ResponseText = strings.TrimSpace(req.ResponseText)
	if req.ResponseText == "" && req.ResponseImageBase64 == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "response requires text or a drawing")
	}
	if s.maxUploadBytes > 0 && int64(len(req.ResponseImageBase64)) > s.maxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "drawing exceeds the upload limit")
	}

	teacher, err := s.teachers.FindByEmail(ctx, teacherEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lesson owner")
	}
	lesson, err := s.lessons.FindByID(ctx, teacher.ID, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.IsLocked(req.QuestionID) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "responses are locked for this question")
	}

	response := &models.LessonResponse{
		TeacherEmail:        teacher.Email,
		LessonID:            lesson.ID,
		QuestionID:          req.QuestionID,
		StudentID:           req.StudentID,
		StudentName:         strings.TrimSpace(req.StudentName),
		ResponseText:        req.ResponseText,
		ResponseImageBase64: req.ResponseImageBase64,
	}
	if err := s.responses.Create(ctx, teacher.ID, response); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store response")
	}

	if response.ResponseImageBase64 == "" {
		// Text answers summarize to themselves; no model call involved.
		if err := s.responses.SetSummary(ctx, teacher.ID, lesson.ID, response.ID, response.ResponseText); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store summary")
		}
		response.Analysis = &models.LessonResponseAnalysis{ResponseSummary: response.ResponseText}
	} else if s.summarizer != nil {
		if err := s.summarizer.Enqueue(teacher.ID, lesson.ID, response.ID); err != nil {
			// The raw drawing is already stored; categorization falls back
			// to the raw text if the summary never lands.
			s.logger.Warn("failed to enqueue summarization",
				zap.String("response_id", response.ID), zap.Error(err))
		}
	}

	_ = s.cache.Invalidate(ctx, publicLessonKey(teacherEmail, lessonID))
	return response, nil
}
