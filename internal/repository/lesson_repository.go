package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
)

// LessonRepository manages lesson documents and their analysis state.
type LessonRepository struct {
	store docstore.Store
}

// NewLessonRepository constructs a LessonRepository. Pass a transactional
// store to scope all operations to that transaction.
func NewLessonRepository(store docstore.Store) *LessonRepository {
	return &LessonRepository{store: store}
}

// FindByID fetches a lesson. Soft-deleted lessons are reported as missing.
func (r *LessonRepository) FindByID(ctx context.Context, teacherID, lessonID string) (*models.Lesson, error) {
	raw, err := r.store.Get(ctx, lessonPath(teacherID, lessonID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load lesson %s: %w", lessonID, err)
	}
	var lesson models.Lesson
	if err := models.Decode(raw, &lesson); err != nil {
		return nil, err
	}
	if lesson.Deleted {
		return nil, ErrNotFound
	}
	return &lesson, nil
}

// ListByTeacher returns the teacher's lessons, excluding soft-deleted ones
// via the stored deleted flag.
func (r *LessonRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Lesson, error) {
	entries, err := r.store.Query(ctx, lessonsParent(teacherID), map[string]interface{}{"deleted": false})
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	lessons := make([]models.Lesson, 0, len(entries))
	for _, entry := range entries {
		var lesson models.Lesson
		if err := models.Decode(entry.Data, &lesson); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

// Upsert replaces the lesson document. Deleted is stored explicitly (false by
// default) so list filters stay simple.
func (r *LessonRepository) Upsert(ctx context.Context, teacherID string, lesson *models.Lesson) error {
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now
	if lesson.QuestionsLocked == nil {
		lesson.QuestionsLocked = []string{}
	}

	stored := *lesson
	stored.ClassData = nil
	stored.LessonPlan = nil
	stored.Responses = nil
	if err := r.store.Set(ctx, lessonPath(teacherID, lesson.ID), stored, false); err != nil {
		return fmt.Errorf("upsert lesson %s: %w", lesson.ID, err)
	}
	return nil
}

// Merge applies a partial update to the lesson document.
func (r *LessonRepository) Merge(ctx context.Context, teacherID, lessonID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	if err := r.store.Set(ctx, lessonPath(teacherID, lessonID), fields, true); err != nil {
		return fmt.Errorf("merge lesson %s: %w", lessonID, err)
	}
	return nil
}

// CommitAnalysis writes the lock set and analysis map in one merge, keeping
// the lock transition and its analysis results atomic.
func (r *LessonRepository) CommitAnalysis(ctx context.Context, teacherID, lessonID string, locked []string, analysis map[string]*models.LessonQuestionAnalysis) error {
	return r.Merge(ctx, teacherID, lessonID, map[string]interface{}{
		"questions_locked":        locked,
		"analysis_by_question_id": analysis,
	})
}

// AppendStudentStarted appends a name to the started log. Reads then writes;
// callers needing isolation should run inside a store transaction.
func (r *LessonRepository) AppendStudentStarted(ctx context.Context, teacherID, lessonID, studentName string) error {
	lesson, err := r.FindByID(ctx, teacherID, lessonID)
	if err != nil {
		return err
	}
	return r.Merge(ctx, teacherID, lessonID, map[string]interface{}{
		"student_names_started": append(lesson.StudentNamesStarted, studentName),
	})
}

// SoftDelete flags the lesson as deleted without removing the document.
func (r *LessonRepository) SoftDelete(ctx context.Context, teacherID, lessonID string) error {
	return r.Merge(ctx, teacherID, lessonID, map[string]interface{}{"deleted": true})
}
