package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
)

// LessonPlanRepository manages lesson plan and question documents.
type LessonPlanRepository struct {
	store docstore.Store
}

// NewLessonPlanRepository constructs a LessonPlanRepository.
func NewLessonPlanRepository(store docstore.Store) *LessonPlanRepository {
	return &LessonPlanRepository{store: store}
}

// ListByTeacher returns all plans with their questions joined in plan order.
func (r *LessonPlanRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonPlan, error) {
	entries, err := r.store.Query(ctx, lessonPlansParent(teacherID), nil)
	if err != nil {
		return nil, fmt.Errorf("list lesson plans: %w", err)
	}

	plans := make([]models.LessonPlan, 0, len(entries))
	for _, entry := range entries {
		var plan models.LessonPlan
		if err := models.Decode(entry.Data, &plan); err != nil {
			return nil, err
		}
		questions, err := r.ListQuestions(ctx, teacherID, plan.ID)
		if err != nil {
			return nil, err
		}
		plan.Questions = questions
		plans = append(plans, plan)
	}
	return plans, nil
}

// FindByID fetches a plan with questions joined in plan order.
func (r *LessonPlanRepository) FindByID(ctx context.Context, teacherID, planID string) (*models.LessonPlan, error) {
	raw, err := r.store.Get(ctx, lessonPlanPath(teacherID, planID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load lesson plan %s: %w", planID, err)
	}
	var plan models.LessonPlan
	if err := models.Decode(raw, &plan); err != nil {
		return nil, err
	}
	questions, err := r.ListQuestions(ctx, teacherID, planID)
	if err != nil {
		return nil, err
	}
	plan.Questions = questions
	return &plan, nil
}

// Upsert writes the plan document. Questions are stored separately.
func (r *LessonPlanRepository) Upsert(ctx context.Context, teacherID string, plan *models.LessonPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	stored := *plan
	stored.Questions = nil
	if err := r.store.Set(ctx, lessonPlanPath(teacherID, plan.ID), stored, false); err != nil {
		return fmt.Errorf("upsert lesson plan %s: %w", plan.ID, err)
	}
	return nil
}

// Delete removes the plan document without cascading to questions.
func (r *LessonPlanRepository) Delete(ctx context.Context, teacherID, planID string) error {
	if err := r.store.Delete(ctx, lessonPlanPath(teacherID, planID)); err != nil {
		return fmt.Errorf("delete lesson plan %s: %w", planID, err)
	}
	return nil
}

// ListQuestions returns a plan's questions sorted by position, then id, which
// fixes the order the categorization pass walks in.
func (r *LessonPlanRepository) ListQuestions(ctx context.Context, teacherID, planID string) ([]models.LessonQuestion, error) {
	entries, err := r.store.Query(ctx, questionsParent(teacherID, planID), nil)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions := make([]models.LessonQuestion, 0, len(entries))
	for _, entry := range entries {
		var question models.LessonQuestion
		if err := models.Decode(entry.Data, &question); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Position != questions[j].Position {
			return questions[i].Position < questions[j].Position
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

// UpsertQuestion writes a question document.
func (r *LessonPlanRepository) UpsertQuestion(ctx context.Context, teacherID string, question *models.LessonQuestion) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now
	if err := r.store.Set(ctx, questionPath(teacherID, question.LessonPlanID, question.ID), question, false); err != nil {
		return fmt.Errorf("upsert question %s: %w", question.ID, err)
	}
	return nil
}

// DeleteQuestion removes a question document.
func (r *LessonPlanRepository) DeleteQuestion(ctx context.Context, teacherID, planID, questionID string) error {
	if err := r.store.Delete(ctx, questionPath(teacherID, planID, questionID)); err != nil {
		return fmt.Errorf("delete question %s: %w", questionID, err)
	}
	return nil
}
