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

type classStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
	FindByID(ctx context.Context, teacherID, classID string) (*models.Class, error)
	Upsert(ctx context.Context, teacherID string, class *models.Class) error
	Delete(ctx context.Context, teacherID, classID string) error
	UpsertStudent(ctx context.Context, teacherID string, student *models.Student) error
	DeleteStudent(ctx context.Context, teacherID, classID, studentID string) error
}

// PutClassRequest represents the class upsert payload.
type PutClassRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// PutStudentRequest represents the roster entry upsert payload.
type PutStudentRequest struct {
	Nickname string `json:"nickname" validate:"required,max=100"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// ClassService orchestrates class and roster operations.
type ClassService struct {
	repo      classStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classStore, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns the teacher's classes with rosters joined in.
func (s *ClassService) List(ctx context.Context, teacher *models.Teacher) ([]models.Class, error) {
	classes, err := s.repo.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Put creates or updates a class under the given id.
func (s *ClassService) Put(ctx context.Context, teacher *models.Teacher, classID string, req PutClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, teacher.ID, classID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		class = &models.Class{ID: classID, TeacherEmail: teacher.Email}
	}

	class.Name = strings.TrimSpace(req.Name)
	if err := s.repo.Upsert(ctx, teacher.ID, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save class")
	}
	return s.get(ctx, teacher.ID, class.ID)
}

// Delete removes the class record.
func (s *ClassService) Delete(ctx context.Context, teacher *models.Teacher, classID string) error {
	if _, err := s.get(ctx, teacher.ID, classID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, teacher.ID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// PutStudent creates or updates a roster entry under the given id.
func (s *ClassService) PutStudent(ctx context.Context, teacher *models.Teacher, classID, studentID string, req PutStudentRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.get(ctx, teacher.ID, classID); err != nil {
		return nil, err
	}

	student := &models.Student{
		ID:           studentID,
		ClassID:      classID,
		TeacherEmail: teacher.Email,
		Nickname:     strings.TrimSpace(req.Nickname),
		Notes:        strings.TrimSpace(req.Notes),
	}
	if err := s.repo.UpsertStudent(ctx, teacher.ID, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student")
	}
	return s.get(ctx, teacher.ID, classID)
}

// DeleteStudent removes a roster entry.
func (s *ClassService) DeleteStudent(ctx context.Context, teacher *models.Teacher, classID, studentID string) error {
	if _, err := s.get(ctx, teacher.ID, classID); err != nil {
		return err
	}
	if err := s.repo.DeleteStudent(ctx, teacher.ID, classID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *ClassService) get(ctx context.Context, teacherID, classID string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, teacherID, classID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}
