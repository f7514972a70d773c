package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-qna-api/internal/repository"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

type stubEnqueuer struct {
	jobs []SummarizeJob
	err  error
}

func (s *stubEnqueuer) Enqueue(teacherID, lessonID, responseID string) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, SummarizeJob{TeacherID: teacherID, LessonID: lessonID, ResponseID: responseID})
	return nil
}

func TestSubmitTextOnlyStoresRawSummary(t *testing.T) {
	f := newLessonFixture(t)
	lessonSvc := f.service(&stubLLM{})
	lesson := f.createLesson(t, lessonSvc)

	enqueuer := &stubEnqueuer{}
	svc := NewResponseService(f.store, enqueuer, nil, nil, nil, 0)

	response, err := svc.Submit(context.Background(), f.teacher.Email, lesson.ID, SubmitResponseRequest{
		QuestionID:   "q1",
		StudentName:  "Alice",
		ResponseText: "Sunlight becomes sugar",
	})
	require.NoError(t, err)
	require.NotNil(t, response.Analysis)
	assert.Equal(t, "Sunlight becomes sugar", response.Analysis.ResponseSummary)
	assert.Empty(t, enqueuer.jobs)

	stored, err := repository.NewResponseRepository(f.store).FindByID(context.Background(), f.teacher.ID, lesson.ID, response.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Analysis)
	assert.Equal(t, "Sunlight becomes sugar", stored.Analysis.ResponseSummary)
}

func TestSubmitDrawingEnqueuesSummarization(t *testing.T) {
	f := newLessonFixture(t)
	lessonSvc := f.service(&stubLLM{})
	lesson := f.createLesson(t, lessonSvc)

	enqueuer := &stubEnqueuer{}
	svc := NewResponseService(f.store, enqueuer, nil, nil, nil, 0)

	response, err := svc.Submit(context.Background(), f.teacher.Email, lesson.ID, SubmitResponseRequest{
		QuestionID:          "q1",
		StudentName:         "Bob",
		ResponseImageBase64: "aGVsbG8=",
	})
	require.NoError(t, err)
	assert.Nil(t, response.Analysis)

	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, response.ID, enqueuer.jobs[0].ResponseID)
	assert.Equal(t, lesson.ID, enqueuer.jobs[0].LessonID)
}

func TestSubmitToLockedQuestionRejected(t *testing.T) {
	f := newLessonFixture(t)
	model := &stubLLM{replies: []string{`{"Correct": ["Alice"]}`}}
	lessonSvc := f.service(model)
	lesson := f.createLesson(t, lessonSvc)

	f.addResponse(t, lesson.ID, "q1", "Alice", "first answer")
	_, err := lessonSvc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	require.NoError(t, err)

	svc := NewResponseService(f.store, &stubEnqueuer{}, nil, nil, nil, 0)
	_, err = svc.Submit(context.Background(), f.teacher.Email, lesson.ID, SubmitResponseRequest{
		QuestionID:   "q1",
		StudentName:  "Late Larry",
		ResponseText: "too late",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	// Nothing was written for the rejected submission.
	responses, err := repository.NewResponseRepository(f.store).ListByLesson(context.Background(), f.teacher.ID, lesson.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestSubmitRequiresTextOrDrawing(t *testing.T) {
	f := newLessonFixture(t)
	lessonSvc := f.service(&stubLLM{})
	lesson := f.createLesson(t, lessonSvc)

	svc := NewResponseService(f.store, &stubEnqueuer{}, nil, nil, nil, 0)
	_, err := svc.Submit(context.Background(), f.teacher.Email, lesson.ID, SubmitResponseRequest{
		QuestionID:  "q1",
		StudentName: "Alice",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubmitUnknownLessonNotFound(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewResponseService(f.store, &stubEnqueuer{}, nil, nil, nil, 0)

	_, err := svc.Submit(context.Background(), f.teacher.Email, "nope1234", SubmitResponseRequest{
		QuestionID:   "q1",
		StudentName:  "Alice",
		ResponseText: "hello",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSubmitOversizedDrawingRejected(t *testing.T) {
	f := newLessonFixture(t)
	lessonSvc := f.service(&stubLLM{})
	lesson := f.createLesson(t, lessonSvc)

	svc := NewResponseService(f.store, &stubEnqueuer{}, nil, nil, nil, 4)
	_, err := svc.Submit(context.Background(), f.teacher.Email, lesson.ID, SubmitResponseRequest{
		QuestionID:          "q1",
		StudentName:         "Alice",
		ResponseImageBase64: "aGVsbG8=",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
