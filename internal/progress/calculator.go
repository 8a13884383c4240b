// Package progress derives course completion figures from lesson and quiz facts.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/gema-course-api/internal/models"
)

const (
	lessonWeight = 0.8
	quizWeight   = 0.2
)

// Snapshot is the read-only input for one (student, course) pair.
type Snapshot struct {
	Lessons     []models.Lesson
	Completions []models.LessonCompletion
	Quizzes     []models.Quiz
	Attempts    []models.QuizAttempt
}

// QuizState is the latest-attempt view of a single quiz.
type QuizState struct {
	Quiz          models.Quiz
	Attempted     bool
	Passed        bool
	AttemptCount  int
	LatestAttempt *models.QuizAttempt
}

// Result holds the computed progress for a snapshot.
type Result struct {
	TotalLessons     int
	CompletedLessons int
	TotalQuizzes     int
	CompletedQuizzes int
	PassedQuizzes    int
	LessonProgress   float64
	QuizProgress     float64
	Progress         int
	NextLesson       *models.Lesson
	Lessons          []models.Lesson
	Quizzes          []QuizState
	LastActivity     *time.Time

	completedAt map[uint]time.Time
}

// LessonCompletedAt returns when the lesson was completed, if it was.
func (r Result) LessonCompletedAt(lessonID uint) (time.Time, bool) {
	at, ok := r.completedAt[lessonID]
	return at, ok
}

// Calculate computes progress for one student in one course. Completions and attempts that do not
// belong to the snapshot's lessons and quizzes are ignored.
func Calculate(s Snapshot) Result {
	lessons := sortedLessons(s.Lessons)
	lessonIDs := make(map[uint]struct{}, len(lessons))
	for _, lesson := range lessons {
		lessonIDs[lesson.ID] = struct{}{}
	}

	result := Result{
		TotalLessons: len(lessons),
		TotalQuizzes: len(s.Quizzes),
		Lessons:      lessons,
		Quizzes:      make([]QuizState, 0, len(s.Quizzes)),
		completedAt:  make(map[uint]time.Time, len(s.Completions)),
	}

	var lastActivity time.Time
	for _, completion := range s.Completions {
		if _, ok := lessonIDs[completion.LessonID]; !ok {
			continue
		}
		if existing, seen := result.completedAt[completion.LessonID]; !seen || completion.CompletedAt.Before(existing) {
			result.completedAt[completion.LessonID] = completion.CompletedAt
		}
		if completion.CompletedAt.After(lastActivity) {
			lastActivity = completion.CompletedAt
		}
	}
	result.CompletedLessons = len(result.completedAt)

	latest := latestAttempts(s.Attempts)
	counts := make(map[uint]int, len(s.Attempts))
	for _, attempt := range s.Attempts {
		counts[attempt.QuizID]++
	}

	for _, quiz := range s.Quizzes {
		state := QuizState{Quiz: quiz, AttemptCount: counts[quiz.ID]}
		if attempt, ok := latest[quiz.ID]; ok {
			attempt := attempt
			state.Attempted = true
			state.Passed = attempt.Passed
			state.LatestAttempt = &attempt
			result.CompletedQuizzes++
			if attempt.Passed {
				result.PassedQuizzes++
			}
			if attempt.AttemptDate.After(lastActivity) {
				lastActivity = attempt.AttemptDate
			}
		}
		result.Quizzes = append(result.Quizzes, state)
	}

	if !lastActivity.IsZero() {
		result.LastActivity = &lastActivity
	}

	result.LessonProgress = ratio(result.CompletedLessons, result.TotalLessons)
	result.QuizProgress = ratio(result.PassedQuizzes, result.TotalQuizzes)
	result.Progress = overall(result)

	for i := range lessons {
		if _, done := result.completedAt[lessons[i].ID]; !done {
			next := lessons[i]
			result.NextLesson = &next
			break
		}
	}

	return result
}

func ratio(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

// overall applies the lessons-dominant 80/20 weighting. A quiz-only course is measured by passed
// quizzes alone. Otherwise a course whose lessons are all complete is at 100% regardless of quiz
// results; completion status is decided separately by Decide.
func overall(r Result) int {
	switch {
	case r.TotalLessons == 0 && r.TotalQuizzes > 0:
		return clamp(int(math.Round(r.QuizProgress)))
	case r.LessonProgress >= 100:
		return 100
	case r.TotalQuizzes == 0 && r.TotalLessons > 0:
		return clamp(int(math.Round(r.LessonProgress)))
	default:
		return clamp(int(math.Round(r.LessonProgress*lessonWeight + r.QuizProgress*quizWeight)))
	}
}

func clamp(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func sortedLessons(lessons []models.Lesson) []models.Lesson {
	sorted := make([]models.Lesson, len(lessons))
	copy(sorted, lessons)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// latestAttempts picks the most recent attempt per quiz, breaking date ties by the higher attempt id.
func latestAttempts(attempts []models.QuizAttempt) map[uint]models.QuizAttempt {
	latest := make(map[uint]models.QuizAttempt, len(attempts))
	for _, attempt := range attempts {
		current, ok := latest[attempt.QuizID]
		if !ok || attempt.AttemptDate.After(current.AttemptDate) ||
			(attempt.AttemptDate.Equal(current.AttemptDate) && attempt.ID > current.ID) {
			latest[attempt.QuizID] = attempt
		}
	}
	return latest
}
