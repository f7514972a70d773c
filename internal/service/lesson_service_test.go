package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-qna-api/internal/models"
	"github.com/noah-isme/kelas-qna-api/internal/repository"
	"github.com/noah-isme/kelas-qna-api/pkg/docstore"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

type lessonFixture struct {
	store   *docstore.MemoryStore
	teacher *models.Teacher
	class   *models.Class
	plan    *models.LessonPlan
}

func newLessonFixture(t *testing.T) *lessonFixture {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	teacher := &models.Teacher{Email: "guru@sekolah.id", Nickname: "Bu Sari"}
	require.NoError(t, repository.NewTeacherRepository(store).Upsert(ctx, teacher))

	classes := repository.NewClassRepository(store)
	class := &models.Class{ID: "c1", Name: "7A", TeacherEmail: teacher.Email}
	require.NoError(t, classes.Upsert(ctx, teacher.ID, class))

	plans := repository.NewLessonPlanRepository(store)
	plan := &models.LessonPlan{ID: "p1", Title: "Fotosintesis", TeacherEmail: teacher.Email}
	require.NoError(t, plans.Upsert(ctx, teacher.ID, plan))
	for i, id := range []string{"q1", "q2"} {
		require.NoError(t, plans.UpsertQuestion(ctx, teacher.ID, &models.LessonQuestion{
			ID:           id,
			LessonPlanID: plan.ID,
			TeacherEmail: teacher.Email,
			Position:     i + 1,
			BodyText:     fmt.Sprintf("Question %d", i+1),
		}))
	}

	return &lessonFixture{store: store, teacher: teacher, class: class, plan: plan}
}

func (f *lessonFixture) service(model *stubLLM) *LessonService {
	categorizer := NewCategorizer(model, &stubBlobStore{}, &stubFetcher{}, nil, nil, 3)
	return NewLessonService(f.store, categorizer, nil, nil, nil, 8)
}

func (f *lessonFixture) createLesson(t *testing.T, svc *LessonService) *models.Lesson {
	t.Helper()
	lesson, err := svc.Put(context.Background(), f.teacher, "", PutLessonRequest{
		LessonName:   "Sesi pagi",
		LessonPlanID: f.plan.ID,
		ClassID:      f.class.ID,
	})
	require.NoError(t, err)
	return lesson
}

func (f *lessonFixture) addResponse(t *testing.T, lessonID, questionID, student, text string) *models.LessonResponse {
	t.Helper()
	response := &models.LessonResponse{
		TeacherEmail: f.teacher.Email,
		LessonID:     lessonID,
		QuestionID:   questionID,
		StudentName:  student,
		ResponseText: text,
	}
	require.NoError(t, repository.NewResponseRepository(f.store).Create(context.Background(), f.teacher.ID, response))
	return response
}

func TestPutLessonCreatesWithGeneratedID(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	lesson := f.createLesson(t, svc)
	assert.Len(t, lesson.ID, 8)
	assert.Equal(t, "Sesi pagi", lesson.LessonName)
	assert.Equal(t, "Fotosintesis", lesson.LessonPlanName)
	assert.Equal(t, "7A", lesson.ClassName)
	assert.Equal(t, "Bu Sari", lesson.TeacherName)
	assert.Empty(t, lesson.QuestionsLocked)
	require.NotNil(t, lesson.LessonPlan)
	assert.Len(t, lesson.LessonPlan.Questions, 2)
}

func TestPutLessonLockTriggersCategorization(t *testing.T) {
	f := newLessonFixture(t)
	model := &stubLLM{replies: []string{`{"Correct": ["Alice", "Bob"]}`}}
	svc := f.service(model)

	lesson := f.createLesson(t, svc)
	f.addResponse(t, lesson.ID, "q1", "Alice", "Sunlight becomes sugar")
	f.addResponse(t, lesson.ID, "q1", "Bob", "Plants eat light")

	updated, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"q1"}, updated.QuestionsLocked)
	require.Contains(t, updated.AnalysisByQuestionID, "q1")
	grouped := updated.AnalysisByQuestionID["q1"].ResponsesByCategory["Correct"]
	require.Len(t, grouped, 2)
	names := []string{grouped[0].StudentName, grouped[1].StudentName}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
	assert.Equal(t, 1, model.calls)

	// The analysis is durable, not just on the returned value.
	reloaded, err := svc.Get(context.Background(), f.teacher, lesson.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.AnalysisByQuestionID, "q1")
}

func TestPutLessonSecondLockKeepsEarlierAnalysis(t *testing.T) {
	f := newLessonFixture(t)
	model := &stubLLM{replies: []string{`{"Correct": ["Alice"]}`, `{"Correct": ["Bob"]}`}}
	svc := f.service(model)

	lesson := f.createLesson(t, svc)
	f.addResponse(t, lesson.ID, "q1", "Alice", "Sunlight becomes sugar")
	f.addResponse(t, lesson.ID, "q2", "Bob", "Roots drink water")

	_, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	require.NoError(t, err)

	updated, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1", "q2"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"q1", "q2"}, updated.QuestionsLocked)
	require.Contains(t, updated.AnalysisByQuestionID, "q1")
	require.Contains(t, updated.AnalysisByQuestionID, "q2")
	// q1 was analyzed in the first pass and not re-sent to the model.
	assert.Equal(t, 2, model.calls)

	reloaded, err := svc.Get(context.Background(), f.teacher, lesson.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.AnalysisByQuestionID, "q1")
	assert.Contains(t, reloaded.AnalysisByQuestionID, "q2")
}

func TestPutLessonAnalysisFailureLeavesLessonUntouched(t *testing.T) {
	f := newLessonFixture(t)
	model := &stubLLM{err: fmt.Errorf("model down")}
	svc := f.service(model)

	lesson := f.createLesson(t, svc)
	f.addResponse(t, lesson.ID, "q1", "Alice", "Sunlight becomes sugar")

	_, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrAnalysisFailed))

	reloaded, err := svc.Get(context.Background(), f.teacher, lesson.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.QuestionsLocked)
	assert.Empty(t, reloaded.AnalysisByQuestionID)
}

func TestPutLessonLockWithoutResponsesFailsPrecondition(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	lesson := f.createLesson(t, svc)
	_, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestPutLessonUnknownPlanFails(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	_, err := svc.Put(context.Background(), f.teacher, "", PutLessonRequest{
		LessonName:   "Sesi",
		LessonPlanID: "missing",
		ClassID:      f.class.ID,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDeleteLessonSoftDeletes(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	lesson := f.createLesson(t, svc)
	require.NoError(t, svc.Delete(context.Background(), f.teacher, lesson.ID))

	_, err := svc.Get(context.Background(), f.teacher, lesson.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	lessons, err := svc.List(context.Background(), f.teacher)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestPublicLessonResolvesByTeacherEmail(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	lesson := f.createLesson(t, svc)
	public, err := svc.Public(context.Background(), f.teacher.Email, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, public.ID)
	require.NotNil(t, public.LessonPlan)
	assert.Len(t, public.LessonPlan.Questions, 2)

	_, err = svc.Public(context.Background(), "nobody@sekolah.id", lesson.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentStartedAppends(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	lesson := f.createLesson(t, svc)
	require.NoError(t, svc.StudentStarted(context.Background(), f.teacher.Email, lesson.ID, "Alice"))
	require.NoError(t, svc.StudentStarted(context.Background(), f.teacher.Email, lesson.ID, "Bob"))

	reloaded, err := svc.Get(context.Background(), f.teacher, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, reloaded.StudentNamesStarted)
}

func TestExportCSV(t *testing.T) {
	f := newLessonFixture(t)
	model := &stubLLM{replies: []string{`{"Correct": ["Alice"]}`}}
	svc := f.service(model)

	lesson := f.createLesson(t, svc)
	f.addResponse(t, lesson.ID, "q1", "Alice", "Sunlight becomes sugar")
	_, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	require.NoError(t, err)

	data, contentType, err := svc.Export(context.Background(), f.teacher, lesson.ID, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "question,category,student,summary"))
	assert.Contains(t, body, "Correct")
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Sunlight becomes sugar")
}

func TestExportWithoutAnalysisFailsPrecondition(t *testing.T) {
	f := newLessonFixture(t)
	svc := f.service(&stubLLM{})

	lesson := f.createLesson(t, svc)
	_, _, err := svc.Export(context.Background(), f.teacher, lesson.ID, "csv")
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	f := newLessonFixture(t)
	model := &stubLLM{replies: []string{`{"Correct": ["Alice"]}`}}
	svc := f.service(model)

	lesson := f.createLesson(t, svc)
	f.addResponse(t, lesson.ID, "q1", "Alice", "text")
	_, err := svc.Put(context.Background(), f.teacher, lesson.ID, PutLessonRequest{
		LessonName:      lesson.LessonName,
		LessonPlanID:    f.plan.ID,
		ClassID:         f.class.ID,
		QuestionsLocked: []string{"q1"},
	})
	require.NoError(t, err)

	_, _, err = svc.Export(context.Background(), f.teacher, lesson.ID, "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
