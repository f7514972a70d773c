package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/internal/repository"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

type lessonPlanStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonPlan, error)
	FindByID(ctx context.Context, teacherID, planID string) (*models.LessonPlan, error)
	Upsert(ctx context.Context, teacherID string, plan *models.LessonPlan) error
	Delete(ctx context.Context, teacherID, planID string) error
	UpsertQuestion(ctx context.Context, teacherID string, question *models.LessonQuestion) error
	DeleteQuestion(ctx context.Context, teacherID, planID, questionID string) error
}

// PutLessonPlanRequest represents the plan upsert payload.
type PutLessonPlanRequest struct {
	Title     string `json:"title" validate:"required,max=300"`
	Published *bool  `json:"published"`
}

// PutQuestionRequest represents the question upsert payload.
type PutQuestionRequest struct {
	Position               int      `json:"position" validate:"gte=0"`
	BodyText               string   `json:"body_text" validate:"required"`
	FieldOfStudy           string   `json:"field_of_study" validate:"max=200"`
	SpecificTopic          string   `json:"specific_topic" validate:"max=300"`
	CategorizationGuidance string   `json:"categorization_guidance" validate:"max=2000"`
	MediaContentURLs       []string `json:"media_content_urls" validate:"dive,url"`
	ContextMaterialURLs    []string `json:"context_material_urls" validate:"dive,url"`
}

// LessonPlanService orchestrates lesson plan and question operations.
type LessonPlanService struct {
	repo      lessonPlanStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonPlanService constructs a LessonPlanService.
func NewLessonPlanService(repo lessonPlanStore, validate *validator.Validate, logger *zap.Logger) *LessonPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonPlanService{repo: repo, validator: validate, logger: logger}
}

// List returns the teacher's plans with questions joined in plan order.
func (s *LessonPlanService) List(ctx context.Context, teacher *models.Teacher) ([]models.LessonPlan, error) {
	plans, err := s.repo.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lesson plans")
	}
	return plans, nil
}

// Put creates or updates a plan under the given id.
func (s *LessonPlanService) Put(ctx context.Context, teacher *models.Teacher, planID string, req PutLessonPlanRequest) (*models.LessonPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson plan payload")
	}

	plan, err := s.repo.FindByID(ctx, teacher.ID, planID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson plan")
		}
		plan = &models.LessonPlan{ID: planID, TeacherEmail: teacher.Email}
	}

	plan.Title = strings.TrimSpace(req.Title)
	if req.Published != nil {
		plan.Published = *req.Published
	}
	if err := s.repo.Upsert(ctx, teacher.ID, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save lesson plan")
	}
	return s.get(ctx, teacher.ID, plan.ID)
}

// Delete removes the plan record.
func (s *LessonPlanService) Delete(ctx context.Context, teacher *models.Teacher, planID string) error {
	if _, err := s.get(ctx, teacher.ID, planID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, teacher.ID, planID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson plan")
	}
	return nil
}

// PutQuestion creates or updates a question under the given id.
func (s *LessonPlanService) PutQuestion(ctx context.Context, teacher *models.Teacher, planID, questionID string, req PutQuestionRequest) (*models.LessonPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if _, err := s.get(ctx, teacher.ID, planID); err != nil {
		return nil, err
	}

	question := &models.LessonQuestion{
		ID:                     questionID,
		LessonPlanID:           planID,
		TeacherEmail:           teacher.Email,
		Position:               req.Position,
		BodyText:               strings.TrimSpace(req.BodyText),
		FieldOfStudy:           strings.TrimSpace(req.FieldOfStudy),
		SpecificTopic:          strings.TrimSpace(req.SpecificTopic),
		CategorizationGuidance: strings.TrimSpace(req.CategorizationGuidance),
		MediaContentURLs:       req.MediaContentURLs,
		ContextMaterialURLs:    req.ContextMaterialURLs,
	}
	if err := s.repo.UpsertQuestion(ctx, teacher.ID, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save question")
	}
	return s.get(ctx, teacher.ID, planID)
}

// DeleteQuestion removes a question from the plan.
func (s *LessonPlanService) DeleteQuestion(ctx context.Context, teacher *models.Teacher, planID, questionID string) error {
	if _, err := s.get(ctx, teacher.ID, planID); err != nil {
		return err
	}
	if err := s.repo.DeleteQuestion(ctx, teacher.ID, planID, questionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}

func (s *LessonPlanService) get(ctx context.Context, teacherID, planID string) (*models.LessonPlan, error) {
	plan, err := s.repo.FindByID(ctx, teacherID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson plan")
	}
	return plan, nil
}
