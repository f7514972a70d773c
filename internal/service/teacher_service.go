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

type teacherStore interface {
	FindByID(ctx context.Context, teacherID string) (*models.Teacher, error)
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	Upsert(ctx context.Context, teacher *models.Teacher) error
}

type classLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
}

type lessonPlanLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonPlan, error)
}

type lessonLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Lesson, error)
}

// UpdateTeacherRequest represents payload for the teacher profile upsert.
type UpdateTeacherRequest struct {
	Nickname string `json:"nickname" validate:"required,max=100"`
}

// TeacherService resolves callers to teacher records and serves the joined
// teacher view.
type TeacherService struct {
	repo      teacherStore
	classes   classLister
	plans     lessonPlanLister
	lessons   lessonLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherStore, classes classLister, plans lessonPlanLister, lessons lessonLister, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, classes: classes, plans: plans, lessons: lessons, validator: validate, logger: logger}
}

// ResolveCaller maps a verified identity onto a teacher record, creating the
// record on first contact.
func (s *TeacherService) ResolveCaller(ctx context.Context, identity *Identity) (*models.Teacher, error) {
	if identity == nil || identity.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	teacher, err := s.repo.FindByEmail(ctx, identity.Email)
	if err == nil {
		return teacher, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher")
	}

	teacher = &models.Teacher{
		Email:    identity.Email,
		Nickname: strings.TrimSpace(identity.Name),
	}
	if err := s.repo.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision teacher")
	}
	s.logger.Info("teacher provisioned", zap.String("email", teacher.Email))
	return teacher, nil
}

// Me returns the teacher with classes, lesson plans and lessons joined in.
func (s *TeacherService) Me(ctx context.Context, teacher *models.Teacher) (*models.TeacherData, error) {
	classes, err := s.classes.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	plans, err := s.plans.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lesson plans")
	}
	lessons, err := s.lessons.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}

	return &models.TeacherData{
		Teacher:     *teacher,
		Classes:     classes,
		LessonPlans: plans,
		Lessons:     lessons,
	}, nil
}

// UpdateMe upserts the caller's profile fields.
func (s *TeacherService) UpdateMe(ctx context.Context, teacher *models.Teacher, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher.Nickname = strings.TrimSpace(req.Nickname)
	if err := s.repo.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}
