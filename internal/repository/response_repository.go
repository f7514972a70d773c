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

// ResponseRepository manages lesson response documents.
type ResponseRepository struct {
	store docstore.Store
}

// NewResponseRepository constructs a ResponseRepository.
func NewResponseRepository(store docstore.Store) *ResponseRepository {
	return &ResponseRepository{store: store}
}

// ListByLesson returns every response submitted for the lesson.
func (r *ResponseRepository) ListByLesson(ctx context.Context, teacherID, lessonID string) ([]models.LessonResponse, error) {
	entries, err := r.store.Query(ctx, responsesParent(teacherID, lessonID), nil)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	responses := make([]models.LessonResponse, 0, len(entries))
	for _, entry := range entries {
		var response models.LessonResponse
		if err := models.Decode(entry.Data, &response); err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

// FindByID fetches one response.
func (r *ResponseRepository) FindByID(ctx context.Context, teacherID, lessonID, responseID string) (*models.LessonResponse, error) {
	raw, err := r.store.Get(ctx, responsePath(teacherID, lessonID, responseID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load response %s: %w", responseID, err)
	}
	var response models.LessonResponse
	if err := models.Decode(raw, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Create writes a new response document.
func (r *ResponseRepository) Create(ctx context.Context, teacherID string, response *models.LessonResponse) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	response.CreatedAt = now
	response.UpdatedAt = now
	if err := r.store.Set(ctx, responsePath(teacherID, response.LessonID, response.ID), response, false); err != nil {
		return fmt.Errorf("create response %s: %w", response.ID, err)
	}
	return nil
}

// SetSummary merge-writes the per-response summary.
func (r *ResponseRepository) SetSummary(ctx context.Context, teacherID, lessonID, responseID, summary string) error {
	fields := map[string]interface{}{
		"analysis":   models.LessonResponseAnalysis{ResponseSummary: summary},
		"updated_at": time.Now().UTC(),
	}
	if err := r.store.Set(ctx, responsePath(teacherID, lessonID, responseID), fields, true); err != nil {
		return fmt.Errorf("set response summary %s: %w", responseID, err)
	}
	return nil
}

// PromoteImage records the public image URL and clears the inline payload
// after a drawing is uploaded to durable storage.
func (r *ResponseRepository) PromoteImage(ctx context.Context, teacherID, lessonID, responseID, imageURL string) error {
	fields := map[string]interface{}{
		"response_image_url":    imageURL,
		"response_image_base64": "",
		"updated_at":            time.Now().UTC(),
	}
	if err := r.store.Set(ctx, responsePath(teacherID, lessonID, responseID), fields, true); err != nil {
		return fmt.Errorf("promote response image %s: %w", responseID, err)
	}
	return nil
}
