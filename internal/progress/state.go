package progress

import "github.com/noah-isme/gema-course-api/internal/models"

// Transition names the edge taken by a status decision.
type Transition string

const (
	TransitionNone      Transition = ""
	TransitionStarted   Transition = "started"
	TransitionCompleted Transition = "completed"
	TransitionReverted  Transition = "reverted"
)

// Decision is the outcome of evaluating the completion rules against the current status.
type Decision struct {
	From       models.EnrollmentStatus
	To         models.EnrollmentStatus
	Transition Transition
}

// Changed reports whether the enrollment status must be written.
func (d Decision) Changed() bool {
	return d.Transition != TransitionNone
}

// IsComplete applies the completion rule: every lesson completed and every quiz attempted (not
// necessarily passed). A course without lessons and quizzes is complete once it has been started.
func IsComplete(current models.EnrollmentStatus, r Result) bool {
	if r.TotalLessons == 0 && r.TotalQuizzes == 0 {
		return current != models.EnrollmentNotStarted
	}

	allLessons := r.TotalLessons == 0 || r.CompletedLessons >= r.TotalLessons
	allQuizzes := r.TotalQuizzes == 0 || r.CompletedQuizzes >= r.TotalQuizzes
	return allLessons && allQuizzes
}

// Decide returns the next enrollment status for the computed result.
func Decide(current models.EnrollmentStatus, r Result) Decision {
	decision := Decision{From: current, To: current}
	complete := IsComplete(current, r)

	switch {
	case complete && current != models.EnrollmentCompleted:
		decision.To = models.EnrollmentCompleted
		decision.Transition = TransitionCompleted
	case !complete && current == models.EnrollmentCompleted:
		decision.To = models.EnrollmentInProgress
		decision.Transition = TransitionReverted
	case !complete && current == models.EnrollmentNotStarted && (r.CompletedLessons > 0 || r.PassedQuizzes > 0):
		decision.To = models.EnrollmentInProgress
		decision.Transition = TransitionStarted
	}

	return decision
}
