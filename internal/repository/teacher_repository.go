package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// TeacherRepository manages teacher documents.
type TeacherRepository struct {
	store docstore.Store
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(store docstore.Store) *TeacherRepository {
	return &TeacherRepository{store: store}
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, teacherID string) (*models.Teacher, error) {
	raw, err := r.store.Get(ctx, teacherPath(teacherID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load teacher %s: %w", teacherID, err)
	}
	var teacher models.Teacher
	if err := models.Decode(raw, &teacher); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher via an equality query on email.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	entries, err := r.store.Query(ctx, "teachers", map[string]interface{}{"email": email})
	if err != nil {
		return nil, fmt.Errorf("query teacher by email: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	var teacher models.Teacher
	if err := models.Decode(entries[0].Data, &teacher); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Upsert writes the teacher document, assigning an id and timestamps as
// needed.
func (r *TeacherRepository) Upsert(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	if err := r.store.Set(ctx, teacherPath(teacher.ID), teacher, false); err != nil {
		return fmt.Errorf("upsert teacher %s: %w", teacher.ID, err)
	}
	return nil
}
