package repository

import "fmt"

// Document path builders. All entities hang off the owning teacher so
// ownership checks collapse into path construction.

func teacherPath(teacherID string) string {
	return fmt.Sprintf("teachers/%s", teacherID)
}

func classPath(teacherID, classID string) string {
	return fmt.Sprintf("teachers/%s/classes/%s", teacherID, classID)
}

func classesParent(teacherID string) string {
	return fmt.Sprintf("teachers/%s/classes", teacherID)
}

func studentPath(teacherID, classID, studentID string) string {
	return fmt.Sprintf("teachers/%s/classes/%s/students/%s", teacherID, classID, studentID)
}

func studentsParent(teacherID, classID string) string {
	return fmt.Sprintf("teachers/%s/classes/%s/students", teacherID, classID)
}

func lessonPlanPath(teacherID, planID string) string {
	return fmt.Sprintf("teachers/%s/lesson_plans/%s", teacherID, planID)
}

func lessonPlansParent(teacherID string) string {
	return fmt.Sprintf("teachers/%s/lesson_plans", teacherID)
}

func questionPath(teacherID, planID, questionID string) string {
	return fmt.Sprintf("teachers/%s/lesson_plans/%s/questions/%s", teacherID, planID, questionID)
}

func questionsParent(teacherID, planID string) string {
	return fmt.Sprintf("teachers/%s/lesson_plans/%s/questions", teacherID, planID)
}

func lessonPath(teacherID, lessonID string) string {
	return fmt.Sprintf("teachers/%s/lessons/%s", teacherID, lessonID)
}

func lessonsParent(teacherID string) string {
	return fmt.Sprintf("teachers/%s/lessons", teacherID)
}

func responsePath(teacherID, lessonID, responseID string) string {
	return fmt.Sprintf("teachers/%s/lessons/%s/responses/%s", teacherID, lessonID, responseID)
}

func responsesParent(teacherID, lessonID string) string {
	return fmt.Sprintf("teachers/%s/lessons/%s/responses", teacherID, lessonID)
}
