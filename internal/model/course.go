package model

import (
	"time"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "Beginner"
	LevelIntermediate CourseLevel = "Intermediate"
	LevelAdvanced     CourseLevel = "Advanced"
)

// CourseCategories is the closed list accepted at course creation.
var CourseCategories = []string{
	"Web Development",
	"Mobile Development",
	"Data Science",
	"Machine Learning",
	"Design",
	"Business",
	"Marketing",
	"Photography",
	"Music",
	"Other",
}

func ValidCategory(category string) bool {
	for _, c := range CourseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// swagger:model Course
type Course struct {
	BaseModel
	Title        string      `gorm:"size:100;not null" json:"title"`
	Description  string      `gorm:"type:text;not null" json:"description"`
	InstructorID uint        `gorm:"index;not null" json:"instructorId"`
	Instructor   *User       `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Category     string      `gorm:"size:50;not null" json:"category"`
	Level        CourseLevel `gorm:"size:20;default:'Beginner'" json:"level"`
	Price        float64     `gorm:"default:0" json:"price"`
	Thumbnail    string      `gorm:"size:500" json:"thumbnail"`
	Language     string      `gorm:"size:50;default:'English'" json:"language"`
	Lessons      []Lesson    `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`

	// Duration is the sum of lesson durations in minutes, recomputed
	// whenever lessons change.
	Duration int `gorm:"default:0" json:"duration"`

	// Denormalized counters, kept in sync best-effort (no cross-entity
	// transaction with enrollment writes).
	EnrollmentCount int     `gorm:"default:0" json:"enrollmentCount"`
	RatingAverage   float64 `gorm:"default:0" json:"ratingAverage"`
	RatingCount     int     `gorm:"default:0" json:"ratingCount"`

	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// TotalLessons is the denominator of every enrollment progress
// computation. Always taken from the current lesson list, never stored.
func (c *Course) TotalLessons() int {
	return len(c.Lessons)
}

// CalculateDuration recomputes the total course duration from its lessons.
func (c *Course) CalculateDuration() int {
	total := 0
	for _, l := range c.Lessons {
		total += l.Duration
	}
	c.Duration = total
	return total
}

// HasLesson reports whether the lesson belongs to this course.
func (c *Course) HasLesson(lessonID uint) bool {
	for _, l := range c.Lessons {
		if l.ID == lessonID {
			return true
		}
	}
	return false
}

// FoldRating folds one score into the running average. Deliberately not
// idempotent: resubmitting a rating counts again (the overwritten
// enrollment score is not subtracted first).
func (c *Course) FoldRating(score int) {
	total := c.RatingAverage*float64(c.RatingCount) + float64(score)
	c.RatingCount++
	c.RatingAverage = total / float64(c.RatingCount)
}

// Publish marks the course visible to students.
func (c *Course) Publish(now time.Time) {
	c.IsPublished = true
	c.PublishedAt = &now
}

func (c *Course) Unpublish() {
	c.IsPublished = false
}

type LessonResourceType string

const (
	ResourcePDF      LessonResourceType = "pdf"
	ResourceVideo    LessonResourceType = "video"
	ResourceLink     LessonResourceType = "link"
	ResourceDocument LessonResourceType = "document"
)

// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID       uint   `gorm:"index;not null" json:"courseId"`
	Title          string `gorm:"size:200;not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	VideoURL       string `gorm:"size:500" json:"videoUrl"`
	VideoThumbnail string `gorm:"size:500" json:"videoThumbnail"`
	Duration       int    `gorm:"default:0" json:"duration"` // minutes
	Order          int    `gorm:"column:sort_order;not null" json:"order"`
	IsPreview      bool   `gorm:"default:false" json:"isPreview"`
}

func (Lesson) TableName() string {
	return "lessons"
}
