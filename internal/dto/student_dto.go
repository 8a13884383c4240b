package dto

import "time"

// StudentDashboardResponse aggregates course progress across every enrollment of a student.
type StudentDashboardResponse struct {
	Summary      DashboardSummary      `json:"summary"`
	Courses      []CourseSummary       `json:"courses"`
	Certificates []CertificateResponse `json:"certificates"`
}

// DashboardSummary captures cross-course totals.
type DashboardSummary struct {
	EnrolledCourses   int        `json:"enrolled_courses"`
	NotStartedCourses int        `json:"not_started_courses"`
	InProgressCourses int        `json:"in_progress_courses"`
	CompletedCourses  int        `json:"completed_courses"`
	TotalLessons      int        `json:"total_lessons"`
	CompletedLessons  int        `json:"completed_lessons"`
	TotalQuizzes      int        `json:"total_quizzes"`
	CompletedQuizzes  int        `json:"completed_quizzes"`
	PassedQuizzes     int        `json:"passed_quizzes"`
	AverageProgress   float64    `json:"average_progress"`
	LastAccessed      *time.Time `json:"last_accessed"`
}

// CourseSummary is one enrollment row on the dashboard and the course list.
type CourseSummary struct {
	EnrollmentID     uint       `json:"enrollment_id"`
	CourseID         uint       `json:"course_id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	Progress         int        `json:"progress"`
	TotalLessons     int        `json:"total_lessons"`
	CompletedLessons int        `json:"completed_lessons"`
	TotalQuizzes     int        `json:"total_quizzes"`
	CompletedQuizzes int        `json:"completed_quizzes"`
	PassedQuizzes    int        `json:"passed_quizzes"`
	NextLesson       *LessonRef `json:"next_lesson"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	LastAccessed     *time.Time `json:"last_accessed"`
}
