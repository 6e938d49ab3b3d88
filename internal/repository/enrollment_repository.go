package repository

import (
	"edunexus_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// forUpdate adds a row lock on dialects that support it. SQLite (used
// by the test fixtures) serializes writers anyway and rejects FOR
// UPDATE syntax.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.First(&enrollment, id).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) FindByIDWithRelations(id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.
		Preload("Student").
		Preload("Course").
		Preload("Course.Instructor").
		Preload("CompletedLessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&enrollment, id).Error
	return &enrollment, err
}

// FindByIDForUpdate locks the enrollment row for a read-modify-write.
// Must run inside a transaction.
func (r *EnrollmentRepository) FindByIDForUpdate(tx *gorm.DB, id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := forUpdate(tx).First(&enrollment, id).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) FindByStudent(studentID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("student_id = ?", studentID).
		Preload("Course").
		Preload("Course.Instructor").
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) FindByCourse(courseID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("course_id = ?", courseID).
		Preload("Student").
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) Update(enrollment *model.Enrollment) error {
	return r.DB.Save(enrollment).Error
}

// HasCompletedLesson checks set membership within the caller's
// transaction.
func (r *EnrollmentRepository) HasCompletedLesson(tx *gorm.DB, enrollmentID, lessonID uint) (bool, error) {
	var count int64
	err := tx.Model(&model.LessonCompletion{}).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentRepository) AddLessonCompletion(tx *gorm.DB, completion *model.LessonCompletion) error {
	return tx.Create(completion).Error
}

// CountCompletedLessons counts the post-merge completed set, so the
// percentage is always derived from what is actually persisted.
func (r *EnrollmentRepository) CountCompletedLessons(tx *gorm.DB, enrollmentID uint) (int, error) {
	var count int64
	err := tx.Model(&model.LessonCompletion{}).
		Where("enrollment_id = ?", enrollmentID).
		Count(&count).Error
	return int(count), err
}
