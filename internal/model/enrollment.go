package model

import (
	"math"
	"time"
)

type EnrollmentStatus string

const (
	StatusActive    EnrollmentStatus = "active"
	StatusCompleted EnrollmentStatus = "completed"
	StatusDropped   EnrollmentStatus = "dropped"
)

// MaxReviewLength caps the optional review text of a rating.
const MaxReviewLength = 500

// EnrollmentProgress accumulates completed lessons. Percentage is
// derived from the completed-lesson set and the course's current lesson
// count; it is recomputed on every mutation and never assigned anywhere
// else.
type EnrollmentProgress struct {
	Percentage           int        `gorm:"default:0" json:"percentage"`
	LastAccessedLessonID *uint      `json:"lastAccessedLessonId,omitempty"`
	LastAccessedAt       *time.Time `json:"lastAccessedAt,omitempty"`
}

// EnrollmentRating holds the student's score and review. At most one
// per enrollment; resubmission overwrites (last write wins).
type EnrollmentRating struct {
	Score   int        `gorm:"default:0" json:"score"`
	Review  string     `gorm:"size:500" json:"review"`
	RatedAt *time.Time `json:"ratedAt,omitempty"`
}

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	StudentID uint  `gorm:"not null;uniqueIndex:idx_student_course" json:"studentId"`
	Student   *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	CourseID  uint  `gorm:"not null;uniqueIndex:idx_student_course" json:"courseId"`
	Course    *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`

	Progress         EnrollmentProgress `gorm:"embedded;embeddedPrefix:progress_" json:"progress"`
	CompletedLessons []LessonCompletion `gorm:"foreignKey:EnrollmentID" json:"completedLessons,omitempty"`

	Status      EnrollmentStatus `gorm:"size:20;default:'active';index" json:"status"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`

	CertificateIssued bool   `gorm:"default:false" json:"certificateIssued"`
	CertificateURL    string `gorm:"size:500" json:"certificateUrl"`

	Rating EnrollmentRating `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`

	EnrolledAt time.Time `gorm:"not null" json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// LessonCompletion is one element of the completed-lesson set. The
// unique index enforces set semantics; CreatedAt preserves insertion
// order for display.
type LessonCompletion struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EnrollmentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_lesson" json:"enrollmentId"`
	LessonID     uint      `gorm:"not null;uniqueIndex:idx_enrollment_lesson" json:"lessonId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}

// RecomputeProgress derives the percentage from the completed count and
// the course's current lesson total. Zero-lesson courses are defined as
// 0 percent.
func (e *Enrollment) RecomputeProgress(completedCount, totalLessons int) int {
	if totalLessons == 0 {
		e.Progress.Percentage = 0
		return 0
	}
	e.Progress.Percentage = int(math.Round(float64(completedCount) / float64(totalLessons) * 100))
	return e.Progress.Percentage
}

// Touch records the most recently accessed lesson. Runs even when the
// lesson was already completed.
func (e *Enrollment) Touch(lessonID uint, now time.Time) {
	id := lessonID
	e.Progress.LastAccessedLessonID = &id
	t := now
	e.Progress.LastAccessedAt = &t
}

// EvaluateCompletion is the guard-and-act step run after every progress
// recomputation. The transition fires only from active at exactly 100
// percent, so retries and later recomputations can never re-fire it or
// overwrite CompletedAt. Returns true when the transition fired.
func (e *Enrollment) EvaluateCompletion(now time.Time) bool {
	if e.Status != StatusActive || e.Progress.Percentage != 100 {
		return false
	}
	e.Status = StatusCompleted
	if e.CompletedAt == nil {
		t := now
		e.CompletedAt = &t
	}
	return true
}

// Drop withdraws an active enrollment. Completed and dropped are
// terminal; returns false without mutating when the enrollment is not
// active.
func (e *Enrollment) Drop() bool {
	if e.Status != StatusActive {
		return false
	}
	e.Status = StatusDropped
	return true
}

// SetRating overwrites the rating (last write wins, no history).
func (e *Enrollment) SetRating(score int, review string, now time.Time) {
	t := now
	e.Rating = EnrollmentRating{
		Score:   score,
		Review:  review,
		RatedAt: &t,
	}
}

// Rated reports whether a rating has ever been submitted.
func (e *Enrollment) Rated() bool {
	return e.Rating.RatedAt != nil
}

// IssueCertificate records an issued certificate; independent of status
// transitions (the eligibility gate lives in the service layer).
func (e *Enrollment) IssueCertificate(url string) {
	e.CertificateIssued = true
	e.CertificateURL = url
}
