package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kelas-qna-api/internal/repository"
	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

func newTeacherService(f *lessonFixture) *TeacherService {
	return NewTeacherService(
		repository.NewTeacherRepository(f.store),
		repository.NewClassRepository(f.store),
		repository.NewLessonPlanRepository(f.store),
		repository.NewLessonRepository(f.store),
		nil, nil,
	)
}

func TestResolveCallerReturnsExistingTeacher(t *testing.T) {
	f := newLessonFixture(t)
	svc := newTeacherService(f)

	teacher, err := svc.ResolveCaller(context.Background(), &Identity{Email: f.teacher.Email, Name: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, teacher.ID)
	assert.Equal(t, "Bu Sari", teacher.Nickname)
}

func TestResolveCallerProvisionsOnFirstContact(t *testing.T) {
	f := newLessonFixture(t)
	svc := newTeacherService(f)

	teacher, err := svc.ResolveCaller(context.Background(), &Identity{Email: "baru@sekolah.id", Name: "Pak Budi"})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.Equal(t, "Pak Budi", teacher.Nickname)

	again, err := svc.ResolveCaller(context.Background(), &Identity{Email: "baru@sekolah.id"})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, again.ID)
}

func TestResolveCallerRequiresIdentity(t *testing.T) {
	f := newLessonFixture(t)
	svc := newTeacherService(f)

	_, err := svc.ResolveCaller(context.Background(), nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestMeJoinsOwnedRecords(t *testing.T) {
	f := newLessonFixture(t)
	lessonSvc := f.service(&stubLLM{})
	f.createLesson(t, lessonSvc)
	svc := newTeacherService(f)

	me, err := svc.Me(context.Background(), f.teacher)
	require.NoError(t, err)
	assert.Len(t, me.Classes, 1)
	assert.Len(t, me.LessonPlans, 1)
	assert.Len(t, me.Lessons, 1)
	assert.Len(t, me.LessonPlans[0].Questions, 2)
}

func TestUpdateMeChangesNickname(t *testing.T) {
	f := newLessonFixture(t)
	svc := newTeacherService(f)

	updated, err := svc.UpdateMe(context.Background(), f.teacher, UpdateTeacherRequest{Nickname: "Ibu Sari"})
	require.NoError(t, err)
	assert.Equal(t, "Ibu Sari", updated.Nickname)

	reloaded, err := repository.NewTeacherRepository(f.store).FindByID(context.Background(), f.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibu Sari", reloaded.Nickname)
}

func TestUpdateMeValidatesPayload(t *testing.T) {
	f := newLessonFixture(t)
	svc := newTeacherService(f)

	_, err := svc.UpdateMe(context.Background(), f.teacher, UpdateTeacherRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
