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

// ClassRepository manages class and student documents.
type ClassRepository struct {
	store docstore.Store
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(store docstore.Store) *ClassRepository {
	return &ClassRepository{store: store}
}

// ListByTeacher returns all classes with their students joined in.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	entries, err := r.store.Query(ctx, classesParent(teacherID), nil)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	classes := make([]models.Class, 0, len(entries))
	for _, entry := range entries {
		var class models.Class
		if err := models.Decode(entry.Data, &class); err != nil {
			return nil, err
		}
		students, err := r.ListStudents(ctx, teacherID, class.ID)
		if err != nil {
			return nil, err
		}
		class.Students = students
		classes = append(classes, class)
	}
	return classes, nil
}

// FindByID fetches a class with students joined in.
func (r *ClassRepository) FindByID(ctx context.Context, teacherID, classID string) (*models.Class, error) {
	raw, err := r.store.Get(ctx, classPath(teacherID, classID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load class %s: %w", classID, err)
	}
	var class models.Class
	if err := models.Decode(raw, &class); err != nil {
		return nil, err
	}
	students, err := r.ListStudents(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	class.Students = students
	return &class, nil
}

// Upsert writes the class document. Students are stored separately.
func (r *ClassRepository) Upsert(ctx context.Context, teacherID string, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	stored := *class
	stored.Students = nil
	if err := r.store.Set(ctx, classPath(teacherID, class.ID), stored, false); err != nil {
		return fmt.Errorf("upsert class %s: %w", class.ID, err)
	}
	return nil
}

// Delete removes the class document. Student documents are the caller's
// responsibility; no cascade is performed.
func (r *ClassRepository) Delete(ctx context.Context, teacherID, classID string) error {
	if err := r.store.Delete(ctx, classPath(teacherID, classID)); err != nil {
		return fmt.Errorf("delete class %s: %w", classID, err)
	}
	return nil
}

// ListStudents returns the class roster ordered by path.
func (r *ClassRepository) ListStudents(ctx context.Context, teacherID, classID string) ([]models.Student, error) {
	entries, err := r.store.Query(ctx, studentsParent(teacherID, classID), nil)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	students := make([]models.Student, 0, len(entries))
	for _, entry := range entries {
		var student models.Student
		if err := models.Decode(entry.Data, &student); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, nil
}

// UpsertStudent writes a roster entry.
func (r *ClassRepository) UpsertStudent(ctx context.Context, teacherID string, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if err := r.store.Set(ctx, studentPath(teacherID, student.ClassID, student.ID), student, false); err != nil {
		return fmt.Errorf("upsert student %s: %w", student.ID, err)
	}
	return nil
}

// DeleteStudent removes a roster entry.
func (r *ClassRepository) DeleteStudent(ctx context.Context, teacherID, classID, studentID string) error {
	if err := r.store.Delete(ctx, studentPath(teacherID, classID, studentID)); err != nil {
		return fmt.Errorf("delete student %s: %w", studentID, err)
	}
	return nil
}
