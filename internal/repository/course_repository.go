package repository

import (
	"edunexus_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) FindByIDWithInstructor(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Preload("Instructor").First(&course, id).Error
	return &course, err
}

// CourseFilter narrows the published-course listing.
type CourseFilter struct {
	Category string
	Level    string
	Search   string
	Sort     string // popular | rating | newest
}

func (r *CourseRepository) FindPublished(filter CourseFilter) ([]model.Course, error) {
	q := r.DB.Model(&model.Course{}).Where("is_published = ?", true)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	switch filter.Sort {
	case "popular":
		q = q.Order("enrollment_count DESC")
	case "rating":
		q = q.Order("rating_average DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var courses []model.Course
	err := q.Preload("Instructor").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(course *model.Course) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
}

// IncrementEnrollmentCount adjusts the denormalized counter by delta,
// flooring at zero. Best-effort relative to enrollment writes.
func (r *CourseRepository) IncrementEnrollmentCount(courseID uint, delta int) error {
	if delta >= 0 {
		return r.DB.Model(&model.Course{}).
			Where("id = ?", courseID).
			Update("enrollment_count", gorm.Expr("enrollment_count + ?", delta)).
			Error
	}
	return r.DB.Model(&model.Course{}).
		Where("id = ? AND enrollment_count >= ?", courseID, -delta).
		Update("enrollment_count", gorm.Expr("enrollment_count + ?", delta)).
		Error
}

// FoldRating folds a score into the course's running rating aggregate.
func (r *CourseRepository) FoldRating(courseID uint, score int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return err
		}
		course.FoldRating(score)
		return tx.Model(&model.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
			"rating_average": course.RatingAverage,
			"rating_count":   course.RatingCount,
		}).Error
	})
}

// CountLessons reads the course's current lesson total, the denominator
// of every progress recomputation.
func (r *CourseRepository) CountLessons(courseID uint) (int, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return int(count), err
}

func (r *CourseRepository) FindLesson(courseID, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Where("id = ? AND course_id = ?", lessonID, courseID).First(&lesson).Error
	return &lesson, err
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *CourseRepository) UpdateLesson(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *CourseRepository) DeleteLesson(lesson *model.Lesson) error {
	return r.DB.Delete(lesson).Error
}

// UpdateDuration persists the recomputed total course duration.
func (r *CourseRepository) UpdateDuration(courseID uint, duration int) error {
	return r.DB.Model(&model.Course{}).
		Where("id = ?", courseID).
		Update("duration", duration).
		Error
}
