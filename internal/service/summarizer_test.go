package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/internal/repository"
	"github.com/noah-isme/kelas-qna-api/pkg/config"
	"github.com/noah-isme/kelas-qna-api/pkg/jobs"
)

func summarizerFixture(t *testing.T, model *stubLLM) (*lessonFixture, *Summarizer, *models.Lesson, *models.LessonResponse) {
	t.Helper()
	f := newLessonFixture(t)
	lessonSvc := f.service(&stubLLM{})
	lesson := f.createLesson(t, lessonSvc)

	response := f.addResponse(t, lesson.ID, "q1", "Alice", "my plant")
	response.ResponseImageBase64 = "aGVsbG8="
	require.NoError(t, repository.NewResponseRepository(f.store).Create(context.Background(), f.teacher.ID, response))

	summarizer := NewSummarizer(
		model,
		repository.NewResponseRepository(f.store),
		repository.NewLessonRepository(f.store),
		repository.NewLessonPlanRepository(f.store),
		nil, nil, config.SummarizerConfig{},
	)
	return f, summarizer, lesson, response
}

func TestSummarizerAppendsModelTextAfterRawText(t *testing.T) {
	model := &stubLLM{replies: []string{"A potted plant on a windowsill."}}
	f, summarizer, lesson, response := summarizerFixture(t, model)

	job := jobs.Job{Payload: SummarizeJob{TeacherID: f.teacher.ID, LessonID: lesson.ID, ResponseID: response.ID}}
	require.NoError(t, summarizer.handle(context.Background(), job))

	stored, err := repository.NewResponseRepository(f.store).FindByID(context.Background(), f.teacher.ID, lesson.ID, response.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Analysis)
	assert.Equal(t, "my plant\n\nA potted plant on a windowsill.", stored.Analysis.ResponseSummary)
	assert.Equal(t, 1, model.calls)

	// The prompt carries the question body and the drawing.
	prompt := promptText(model.requests[0])
	assert.Contains(t, prompt, "Question 1")
	hasImage := false
	for _, part := range model.requests[0].Parts {
		if part.Kind == "image" {
			hasImage = true
		}
	}
	assert.True(t, hasImage)
}

func TestSummarizerDrawingOnlySummaryIsModelText(t *testing.T) {
	model := &stubLLM{replies: []string{"Two stick figures."}}
	f, summarizer, lesson, response := summarizerFixture(t, model)

	response.ResponseText = ""
	require.NoError(t, repository.NewResponseRepository(f.store).Create(context.Background(), f.teacher.ID, response))

	job := jobs.Job{Payload: SummarizeJob{TeacherID: f.teacher.ID, LessonID: lesson.ID, ResponseID: response.ID}}
	require.NoError(t, summarizer.handle(context.Background(), job))

	stored, err := repository.NewResponseRepository(f.store).FindByID(context.Background(), f.teacher.ID, lesson.ID, response.ID)
	require.NoError(t, err)
	assert.Equal(t, "Two stick figures.", stored.Analysis.ResponseSummary)
}

func TestSummarizerModelFailurePropagatesForRetry(t *testing.T) {
	model := &stubLLM{err: fmt.Errorf("model down")}
	f, summarizer, lesson, response := summarizerFixture(t, model)

	job := jobs.Job{Payload: SummarizeJob{TeacherID: f.teacher.ID, LessonID: lesson.ID, ResponseID: response.ID}}
	assert.Error(t, summarizer.handle(context.Background(), job))

	stored, err := repository.NewResponseRepository(f.store).FindByID(context.Background(), f.teacher.ID, lesson.ID, response.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Analysis)
}

func TestSummarizerExhaustRecordsFallbackMarker(t *testing.T) {
	model := &stubLLM{err: fmt.Errorf("model down")}
	f, summarizer, lesson, response := summarizerFixture(t, model)

	job := jobs.Job{Payload: SummarizeJob{TeacherID: f.teacher.ID, LessonID: lesson.ID, ResponseID: response.ID}}
	summarizer.exhaust(context.Background(), job, fmt.Errorf("model down"))

	stored, err := repository.NewResponseRepository(f.store).FindByID(context.Background(), f.teacher.ID, lesson.ID, response.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Analysis)
	assert.Equal(t, "my plant\n\nsummary unavailable", stored.Analysis.ResponseSummary)
}

func TestSummarizerSkipsAlreadySummarized(t *testing.T) {
	model := &stubLLM{replies: []string{"unused"}}
	f, summarizer, lesson, response := summarizerFixture(t, model)

	responses := repository.NewResponseRepository(f.store)
	require.NoError(t, responses.SetSummary(context.Background(), f.teacher.ID, lesson.ID, response.ID, "done already"))

	job := jobs.Job{Payload: SummarizeJob{TeacherID: f.teacher.ID, LessonID: lesson.ID, ResponseID: response.ID}}
	require.NoError(t, summarizer.handle(context.Background(), job))
	assert.Zero(t, model.calls)
}
