package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/kelas-qna-api/pkg/errors"
)

func TestDecodeValidTeacher(t *testing.T) {
	raw := json.RawMessage(`{"id":"t1","email":"a@b.c","nickname":"Ms. A"}`)

	var teacher Teacher
	require.NoError(t, Decode(raw, &teacher))
	assert.Equal(t, "a@b.c", teacher.Email)
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	raw := json.RawMessage(`{"nickname":"Ms. A"}`)

	var teacher Teacher
	err := Decode(raw, &teacher)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedRecord))
}

func TestDecodeInvalidJSON(t *testing.T) {
	var lesson Lesson
	err := Decode(json.RawMessage(`{"id":`), &lesson)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedRecord))
}

func TestLessonIsLocked(t *testing.T) {
	lesson := Lesson{QuestionsLocked: []string{"q1", "q3"}}
	assert.True(t, lesson.IsLocked("q1"))
	assert.False(t, lesson.IsLocked("q2"))
}

func TestResponseSummaryOrText(t *testing.T) {
	resp := LessonResponse{ResponseText: "raw answer"}
	assert.Equal(t, "raw answer", resp.SummaryOrText())

	resp.Analysis = &LessonResponseAnalysis{ResponseSummary: "a summary"}
	assert.Equal(t, "a summary", resp.SummaryOrText())
}
