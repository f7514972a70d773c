package models

import "time"

// LessonPlan is a reusable question set, independent of any class or lesson.
type LessonPlan struct {
	ID           string    `json:"id"`
	TeacherEmail string    `json:"teacher_email"`
	Title        string    `json:"title"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Questions is joined in on reads in plan order.
	Questions []LessonQuestion `json:"questions,omitempty"`
}

// Validate checks required fields on a stored record.
func (p *LessonPlan) Validate() error {
	if p.ID == "" || p.Title == "" {
		return requiredFieldsError("lesson plan", "id", "title")
	}
	return nil
}

// LessonQuestion is one prompt within a plan. Position fixes the plan order
// that the categorization pass iterates in.
type LessonQuestion struct {
	ID                     string    `json:"id"`
	LessonPlanID           string    `json:"lesson_plan_id"`
	TeacherEmail           string    `json:"teacher_email"`
	Position               int       `json:"position"`
	BodyText               string    `json:"body_text"`
	FieldOfStudy           string    `json:"field_of_study,omitempty"`
	SpecificTopic          string    `json:"specific_topic,omitempty"`
	CategorizationGuidance string    `json:"categorization_guidance,omitempty"`
	MediaContentURLs       []string  `json:"media_content_urls,omitempty"`
	ContextMaterialURLs    []string  `json:"context_material_urls,omitempty"`
	AnalysisSummary        string    `json:"analysis_summary,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Validate checks required fields on a stored record.
func (q *LessonQuestion) Validate() error {
	if q.ID == "" || q.BodyText == "" {
		return requiredFieldsError("lesson question", "id", "body_text")
	}
	return nil
}
