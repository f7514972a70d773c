package models

import "time"

// Class groups students for lesson assignment.
type Class struct {
	ID           string    `json:"id"`
	TeacherEmail string    `json:"teacher_email"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Students is joined in on reads; it is not stored on the class document.
	Students []Student `json:"students,omitempty"`
}

// Validate checks required fields on a stored record.
func (c *Class) Validate() error {
	if c.ID == "" || c.Name == "" {
		return requiredFieldsError("class", "id", "name")
	}
	return nil
}

// Student is a class roster entry. Students have no accounts of their own;
// they are identified by nickname within their class.
type Student struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"class_id"`
	TeacherEmail string    `json:"teacher_email"`
	Nickname     string    `json:"nickname"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks required fields on a stored record.
func (s *Student) Validate() error {
	if s.ID == "" || s.Nickname == "" {
		return requiredFieldsError("student", "id", "nickname")
	}
	return nil
}
