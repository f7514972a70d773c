package models

import "time"

// Lesson is one run of a lesson plan against a class. Its id is a short
// human-usable token (shared as a link with students), not a UUID.
type Lesson struct {
	ID             string `json:"id"`
	LessonName     string `json:"lesson_name"`
	LessonPlanID   string `json:"lesson_plan_id"`
	LessonPlanName string `json:"lesson_plan_name"`
	ClassID        string `json:"class_id"`
	ClassName      string `json:"class_name"`
	TeacherName    string `json:"teacher_name"`
	TeacherEmail   string `json:"teacher_email"`

	// QuestionsLocked holds the ids of questions closed for submission.
	// Locking is one-way; a locked question triggers categorization.
	QuestionsLocked []string `json:"questions_locked"`

	// Deleted is always present once a lesson exists so "not deleted"
	// queries stay simple equality filters.
	Deleted bool `json:"deleted"`

	StudentNamesStarted  []string                           `json:"student_names_started,omitempty"`
	AnalysisByQuestionID map[string]*LessonQuestionAnalysis `json:"analysis_by_question_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined in for single-lesson reads only.
	ClassData  *Class           `json:"class_data,omitempty"`
	LessonPlan *LessonPlan      `json:"lesson_plan,omitempty"`
	Responses  []LessonResponse `json:"responses,omitempty"`
}

// Validate checks required fields on a stored record.
func (l *Lesson) Validate() error {
	if l.ID == "" || l.LessonPlanID == "" || l.ClassID == "" {
		return requiredFieldsError("lesson", "id", "lesson_plan_id", "class_id")
	}
	return nil
}

// IsLocked reports whether the given question is closed for submission.
func (l *Lesson) IsLocked(questionID string) bool {
	for _, id := range l.QuestionsLocked {
		if id == questionID {
			return true
		}
	}
	return false
}

// LessonQuestionAnalysis groups response snapshots under category labels.
type LessonQuestionAnalysis struct {
	QuestionID          string                      `json:"question_id"`
	ResponsesByCategory map[string][]LessonResponse `json:"responses_by_category"`
}

// Categories returns the analysis' label set in no particular order.
func (a *LessonQuestionAnalysis) Categories() []string {
	if a == nil {
		return nil
	}
	labels := make([]string, 0, len(a.ResponsesByCategory))
	for label := range a.ResponsesByCategory {
		labels = append(labels, label)
	}
	return labels
}
