package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrCourseNotFound       = errors.New("course not found")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAlreadyEnrolled      = errors.New("already enrolled in this course")
	ErrCourseNotPublished   = errors.New("cannot enroll in unpublished course")
	ErrEnrollmentNotActive  = errors.New("enrollment is not active")
	ErrInvalidRatingScore   = errors.New("rating score must be between 1 and 5")
	ErrInvalidCategory      = errors.New("invalid course category")
	ErrReviewTooLong        = errors.New("review cannot exceed 500 characters")
	ErrCourseNotCompleted   = errors.New("certificate requires a completed course")
	ErrUnsupportedVideoType = errors.New("unsupported video file type")
)
