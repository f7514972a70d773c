package models

import "time"

// LessonResponse is one student's answer to one question within a lesson.
// Either text or a drawing (or both) may be present.
type LessonResponse struct {
	ID           string `json:"id"`
	TeacherEmail string `json:"teacher_email"`
	LessonID     string `json:"lesson_id"`
	QuestionID   string `json:"question_id"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`

	ResponseText string `json:"response_text,omitempty"`

	// ResponseImageBase64 holds a drawing inline until it is promoted to the
	// blob store; afterwards only ResponseImageURL is kept.
	ResponseImageBase64 string `json:"response_image_base64,omitempty"`
	ResponseImageURL    string `json:"response_image_url,omitempty"`

	Analysis *LessonResponseAnalysis `json:"analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required fields on a stored record.
func (r *LessonResponse) Validate() error {
	if r.ID == "" || r.QuestionID == "" || r.StudentName == "" {
		return requiredFieldsError("lesson response", "id", "question_id", "student_name")
	}
	return nil
}

// SummaryOrText returns the computed summary, falling back to the raw text
// when no summary has been written yet.
func (r *LessonResponse) SummaryOrText() string {
	if r.Analysis != nil && r.Analysis.ResponseSummary != "" {
		return r.Analysis.ResponseSummary
	}
	return r.ResponseText
}

// LessonResponseAnalysis carries the asynchronous per-response summary.
type LessonResponseAnalysis struct {
	ResponseSummary string `json:"response_summary"`
}
