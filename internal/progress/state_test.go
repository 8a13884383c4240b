package progress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-course-api/internal/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		current    models.EnrollmentStatus
		result     Result
		want       models.EnrollmentStatus
		transition Transition
	}{
		{
			name:       "first lesson starts the course",
			current:    models.EnrollmentNotStarted,
			result:     Result{TotalLessons: 3, CompletedLessons: 1},
			want:       models.EnrollmentInProgress,
			transition: TransitionStarted,
		},
		{
			name:       "passed quiz starts the course",
			current:    models.EnrollmentNotStarted,
			result:     Result{TotalLessons: 3, TotalQuizzes: 2, CompletedQuizzes: 1, PassedQuizzes: 1},
			want:       models.EnrollmentInProgress,
			transition: TransitionStarted,
		},
		{
			name:    "failed quiz alone does not start the course",
			current: models.EnrollmentNotStarted,
			result:  Result{TotalLessons: 3, TotalQuizzes: 2, CompletedQuizzes: 1},
			want:    models.EnrollmentNotStarted,
		},
		{
			name:       "all lessons done and all quizzes attempted completes",
			current:    models.EnrollmentInProgress,
			result:     Result{TotalLessons: 2, CompletedLessons: 2, TotalQuizzes: 2, CompletedQuizzes: 2, PassedQuizzes: 0},
			want:       models.EnrollmentCompleted,
			transition: TransitionCompleted,
		},
		{
			name:    "unattempted quiz blocks completion even at 100 percent",
			current: models.EnrollmentInProgress,
			result:  Result{TotalLessons: 2, CompletedLessons: 2, TotalQuizzes: 2, CompletedQuizzes: 1, Progress: 100},
			want:    models.EnrollmentInProgress,
		},
		{
			name:       "not started can complete directly",
			current:    models.EnrollmentNotStarted,
			result:     Result{TotalQuizzes: 4, CompletedQuizzes: 4, PassedQuizzes: 2},
			want:       models.EnrollmentCompleted,
			transition: TransitionCompleted,
		},
		{
			name:    "completed stays completed",
			current: models.EnrollmentCompleted,
			result:  Result{TotalLessons: 1, CompletedLessons: 1},
			want:    models.EnrollmentCompleted,
		},
		{
			name:       "completed reverts when a requirement disappears",
			current:    models.EnrollmentCompleted,
			result:     Result{TotalLessons: 3, CompletedLessons: 2},
			want:       models.EnrollmentInProgress,
			transition: TransitionReverted,
		},
		{
			name:    "empty course waits for start",
			current: models.EnrollmentNotStarted,
			result:  Result{},
			want:    models.EnrollmentNotStarted,
		},
		{
			name:       "empty course completes once started",
			current:    models.EnrollmentInProgress,
			result:     Result{},
			want:       models.EnrollmentCompleted,
			transition: TransitionCompleted,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Decide(tc.current, tc.result)
			require.Equal(t, tc.current, decision.From)
			require.Equal(t, tc.want, decision.To)
			require.Equal(t, tc.transition, decision.Transition)
			require.Equal(t, tc.transition != TransitionNone, decision.Changed())
		})
	}
}
