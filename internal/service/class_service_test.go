package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-qna-api/internal/repository"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

func TestClassServicePutAndRoster(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewClassService(repository.NewClassRepository(f.store), nil, nil)
	ctx := context.Background()

	class, err := svc.Put(ctx, f.teacher, "c2", PutClassRequest{Name: "8B"})
	require.NoError(t, err)
	assert.Equal(t, "8B", class.Name)
	assert.Equal(t, f.teacher.Email, class.TeacherEmail)

	class, err = svc.PutStudent(ctx, f.teacher, "c2", "s1", PutStudentRequest{Nickname: "Andi"})
	require.NoError(t, err)
	require.Len(t, class.Students, 1)
	assert.Equal(t, "Andi", class.Students[0].Nickname)

	class, err = svc.PutStudent(ctx, f.teacher, "c2", "s1", PutStudentRequest{Nickname: "Andi P", Notes: "front row"})
	require.NoError(t, err)
	require.Len(t, class.Students, 1)
	assert.Equal(t, "Andi P", class.Students[0].Nickname)

	require.NoError(t, svc.DeleteStudent(ctx, f.teacher, "c2", "s1"))
	classes, err := svc.List(ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, classes, 2)
}

func TestClassServicePutRenamesExisting(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewClassService(repository.NewClassRepository(f.store), nil, nil)

	class, err := svc.Put(context.Background(), f.teacher, f.class.ID, PutClassRequest{Name: "7A baru"})
	require.NoError(t, err)
	assert.Equal(t, "7A baru", class.Name)
	assert.Equal(t, f.class.ID, class.ID)
}

func TestClassServiceStudentOnMissingClass(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewClassService(repository.NewClassRepository(f.store), nil, nil)

	_, err := svc.PutStudent(context.Background(), f.teacher, "missing", "s1", PutStudentRequest{Nickname: "Andi"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClassServiceDelete(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewClassService(repository.NewClassRepository(f.store), nil, nil)

	require.NoError(t, svc.Delete(context.Background(), f.teacher, f.class.ID))
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), f.teacher, f.class.ID), appErrors.ErrNotFound))
}

func TestLessonPlanServicePutQuestionKeepsPlanOrder(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewLessonPlanService(repository.NewLessonPlanRepository(f.store), nil, nil)
	ctx := context.Background()

	plan, err := svc.PutQuestion(ctx, f.teacher, f.plan.ID, "q0", PutQuestionRequest{
		Position: 0,
		BodyText: "Warm-up question",
	})
	require.NoError(t, err)
	require.Len(t, plan.Questions, 3)
	assert.Equal(t, "Warm-up question", plan.Questions[0].BodyText)
}

func TestLessonPlanServiceDeleteQuestion(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewLessonPlanService(repository.NewLessonPlanRepository(f.store), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.DeleteQuestion(ctx, f.teacher, f.plan.ID, "q2"))
	plans, err := svc.List(ctx, f.teacher)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Len(t, plans[0].Questions, 1)
}

func TestLessonPlanServiceValidation(t *testing.T) {
	f := newLessonFixture(t)
	svc := NewLessonPlanService(repository.NewLessonPlanRepository(f.store), nil, nil)

	_, err := svc.Put(context.Background(), f.teacher, "p2", PutLessonPlanRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
