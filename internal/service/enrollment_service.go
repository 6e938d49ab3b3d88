package service

import (
	"fmt"
	"strings"
	"time"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"
	"edunexus_backend/pkg/logger"
	"edunexus_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnrollmentService owns the enrollment lifecycle: enroll, progress
// tracking, the completion evaluator, drop, rating, and certificate
// issuance. Each mutation is a single read-modify-write on one
// enrollment row; course-level counters and notifications are
// best-effort side effects applied after the enrollment write commits.
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	UserRepo       *repository.UserRepository
	Notifier       Notifier
	DB             *gorm.DB
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	notifier Notifier,
	db *gorm.DB,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		UserRepo:       userRepo,
		Notifier:       notifier,
		DB:             db,
	}
}

func (s *EnrollmentService) Enroll(studentID, courseID uint) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, util.ErrCourseNotPublished
	}

	if _, err := s.EnrollmentRepo.FindByStudentAndCourse(studentID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	enrollment := &model.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     model.StatusActive,
		EnrolledAt: time.Now(),
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}

	// Denormalized counter, outside the enrollment write. A failure
	// here leaves it slightly stale, which is accepted.
	if err := s.CourseRepo.IncrementEnrollmentCount(courseID, 1); err != nil {
		logger.Log.Warn("enrollment count increment failed",
			zap.Uint("course", courseID), zap.Error(err))
	}

	studentName := s.userName(studentID)
	s.Notifier.Notify(
		course.InstructorID,
		model.NotifyNewEnrollment,
		"New Student Enrolled!",
		fmt.Sprintf("%s has enrolled in your course %q", studentName, course.Title),
		model.NotificationData{CourseID: &course.ID, UserID: &studentID},
	)

	return enrollment, nil
}

func (s *EnrollmentService) MyEnrollments(studentID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.FindByStudent(studentID)
}

// Get returns an enrollment to its student or the course's instructor.
func (s *EnrollmentService) Get(callerID, enrollmentID uint) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByIDWithRelations(enrollmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}

	if enrollment.StudentID != callerID &&
		(enrollment.Course == nil || enrollment.Course.InstructorID != callerID) {
		return nil, util.ErrPermissionDenied
	}
	return enrollment, nil
}

// CompleteLesson marks one lesson done and runs the completion
// evaluator synchronously before returning. The whole read-modify-write
// happens under a row lock so two concurrent calls for different
// lessons cannot lose an update: the percentage is always recomputed
// from the post-merge completed set.
func (s *EnrollmentService) CompleteLesson(callerID, enrollmentID, lessonID uint) (*model.Enrollment, error) {
	now := time.Now()
	justCompleted := false
	var enrollment *model.Enrollment

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		enrollment, err = s.EnrollmentRepo.FindByIDForUpdate(tx, enrollmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return util.ErrEnrollmentNotFound
			}
			return err
		}

		if enrollment.StudentID != callerID {
			return util.ErrPermissionDenied
		}

		var belongs int64
		if err := tx.Model(&model.Lesson{}).
			Where("id = ? AND course_id = ?", lessonID, enrollment.CourseID).
			Count(&belongs).Error; err != nil {
			return err
		}
		if belongs == 0 {
			return util.ErrLessonNotFound
		}

		done, err := s.EnrollmentRepo.HasCompletedLesson(tx, enrollmentID, lessonID)
		if err != nil {
			return err
		}
		if !done {
			completion := &model.LessonCompletion{
				EnrollmentID: enrollmentID,
				LessonID:     lessonID,
			}
			if err := s.EnrollmentRepo.AddLessonCompletion(tx, completion); err != nil {
				return err
			}
		}

		// Last-accessed updates even for repeated completions.
		enrollment.Touch(lessonID, now)

		completedCount, err := s.EnrollmentRepo.CountCompletedLessons(tx, enrollmentID)
		if err != nil {
			return err
		}

		var totalLessons int64
		if err := tx.Model(&model.Lesson{}).
			Where("course_id = ?", enrollment.CourseID).
			Count(&totalLessons).Error; err != nil {
			return err
		}

		enrollment.RecomputeProgress(completedCount, int(totalLessons))
		justCompleted = enrollment.EvaluateCompletion(now)

		return tx.Save(enrollment).Error
	})
	if err != nil {
		return nil, err
	}

	if justCompleted {
		monitoring.CourseCompletions.Inc()
		s.notifyCompletion(enrollment)
	}

	return enrollment, nil
}

// notifyCompletion fires the two one-shot completion notifications.
// Only ever reached via the active->completed transition, so it cannot
// fire twice for one enrollment.
func (s *EnrollmentService) notifyCompletion(enrollment *model.Enrollment) {
	course, err := s.CourseRepo.FindByID(enrollment.CourseID)
	if err != nil {
		logger.Log.Warn("loading course for completion notification failed",
			zap.Uint("course", enrollment.CourseID), zap.Error(err))
		return
	}

	studentName := s.userName(enrollment.StudentID)
	data := model.NotificationData{
		CourseID:     &course.ID,
		EnrollmentID: &enrollment.ID,
		UserID:       &enrollment.StudentID,
	}

	s.Notifier.Notify(
		course.InstructorID,
		model.NotifyCourseCompleted,
		"Student Completed Course!",
		fmt.Sprintf("%s has completed your course %q", studentName, course.Title),
		data,
	)
	s.Notifier.Notify(
		enrollment.StudentID,
		model.NotifyCertificateReady,
		"Congratulations! Certificate Ready",
		fmt.Sprintf("You've completed %q! Your certificate is ready to download.", course.Title),
		model.NotificationData{CourseID: &course.ID, EnrollmentID: &enrollment.ID},
	)
}

// Drop withdraws an active enrollment. Terminal states are never
// revisited; the denormalized course counter floors at zero.
func (s *EnrollmentService) Drop(callerID, enrollmentID uint) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.StudentID != callerID {
		return nil, util.ErrPermissionDenied
	}

	if !enrollment.Drop() {
		return nil, util.ErrEnrollmentNotActive
	}
	if err := s.EnrollmentRepo.Update(enrollment); err != nil {
		return nil, err
	}

	if err := s.CourseRepo.IncrementEnrollmentCount(enrollment.CourseID, -1); err != nil {
		logger.Log.Warn("enrollment count decrement failed",
			zap.Uint("course", enrollment.CourseID), zap.Error(err))
	}

	return enrollment, nil
}

type RatingRequest struct {
	Score  int    `json:"score" binding:"required"`
	Review string `json:"review"`
}

// Rate records a score and review on the enrollment and folds the score
// into the course aggregate. Validation happens before any mutation.
// The fold is intentionally not idempotent: resubmission double-counts
// the score in the course average, matching the observed behavior of
// the platform this service replaces (see DESIGN.md).
func (s *EnrollmentService) Rate(callerID, enrollmentID uint, req RatingRequest) (*model.Enrollment, error) {
	if req.Score < 1 || req.Score > 5 {
		return nil, util.ErrInvalidRatingScore
	}
	if len([]rune(req.Review)) > model.MaxReviewLength {
		return nil, util.ErrReviewTooLong
	}

	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.StudentID != callerID {
		return nil, util.ErrPermissionDenied
	}

	enrollment.SetRating(req.Score, req.Review, time.Now())
	if err := s.EnrollmentRepo.Update(enrollment); err != nil {
		return nil, err
	}

	if err := s.CourseRepo.FoldRating(enrollment.CourseID, req.Score); err != nil {
		logger.Log.Warn("course rating fold failed",
			zap.Uint("course", enrollment.CourseID), zap.Error(err))
	}

	if course, err := s.CourseRepo.FindByID(enrollment.CourseID); err == nil {
		message := fmt.Sprintf("%s rated your course %q %d stars",
			s.userName(callerID), course.Title, req.Score)
		if req.Review != "" {
			message += fmt.Sprintf(": %q", util.Truncate(req.Review, 50))
		}
		s.Notifier.Notify(
			course.InstructorID,
			model.NotifyNewRating,
			fmt.Sprintf("New %d-Star Rating! %s", req.Score, strings.Repeat("*", req.Score)),
			message,
			model.NotificationData{
				CourseID:     &course.ID,
				EnrollmentID: &enrollment.ID,
				UserID:       &callerID,
			},
		)
	}

	return enrollment, nil
}

// IssueCertificate records issuance for a completed enrollment. Only
// the course's instructor may issue; status is the only gate.
func (s *EnrollmentService) IssueCertificate(callerID, enrollmentID uint) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByIDWithRelations(enrollmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.Course == nil || enrollment.Course.InstructorID != callerID {
		return nil, util.ErrPermissionDenied
	}
	if enrollment.Status != model.StatusCompleted {
		return nil, util.ErrCourseNotCompleted
	}

	enrollment.IssueCertificate(fmt.Sprintf("/certificates/%d", enrollment.ID))
	if err := s.EnrollmentRepo.Update(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// CourseStudents lists a course's enrollments for its instructor.
func (s *EnrollmentService) CourseStudents(callerID, courseID uint) ([]model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.InstructorID != callerID {
		return nil, util.ErrPermissionDenied
	}
	return s.EnrollmentRepo.FindByCourse(courseID)
}

func (s *EnrollmentService) userName(userID uint) string {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return "A student"
	}
	return user.Name
}
