package models

import "time"

// Teacher owns classes, lesson plans and lessons.
type Teacher struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required fields on a stored record.
func (t *Teacher) Validate() error {
	if t.ID == "" || t.Email == "" {
		return requiredFieldsError("teacher", "id", "email")
	}
	return nil
}

// TeacherData is the joined view returned by the "me" endpoint.
type TeacherData struct {
	Teacher
	Classes     []Class      `json:"classes"`
	LessonPlans []LessonPlan `json:"lesson_plans"`
	Lessons     []Lesson     `json:"lessons"`
}
