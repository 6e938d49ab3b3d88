package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"
	"edunexus_backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeNotifier records notifications synchronously so tests can assert
// exactly-once delivery.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (f *fakeNotifier) Notify(recipientID uint, ntype model.NotificationType, title, message string, data model.NotificationData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, model.Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Message:     message,
		Data:        data,
	})
}

func (f *fakeNotifier) byType(ntype model.NotificationType) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.sent {
		if n.Type == ntype {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	notifier   *fakeNotifier
	enrollment *EnrollmentService
	course     *CourseService

	instructor model.User
	student    model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	notifier := &fakeNotifier{}

	f := &fixture{
		db:         db,
		notifier:   notifier,
		enrollment: NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, notifier, db),
		course:     NewCourseService(courseRepo, enrollmentRepo, notifier, nil),
	}

	f.instructor = model.User{Name: "Ada Instructor", Email: "ada@example.com", Password: "x", Role: model.Instructor}
	require.NoError(t, db.Create(&f.instructor).Error)
	f.student = model.User{Name: "Sam Student", Email: "sam@example.com", Password: "x", Role: model.Student}
	require.NoError(t, db.Create(&f.student).Error)

	return f
}

// publishedCourse creates a published course with the given number of
// lessons and returns it with lessons loaded.
func (f *fixture) publishedCourse(t *testing.T, lessonCount int) *model.Course {
	t.Helper()

	now := time.Now()
	course := model.Course{
		Title:        "Go from Scratch",
		Description:  "A full introduction to the Go programming language.",
		InstructorID: f.instructor.ID,
		Category:     "Web Development",
		Level:        model.LevelBeginner,
		Language:     "English",
		IsPublished:  true,
		PublishedAt:  &now,
	}
	require.NoError(t, f.db.Create(&course).Error)

	for i := 1; i <= lessonCount; i++ {
		lesson := model.Lesson{
			CourseID: course.ID,
			Title:    fmt.Sprintf("Lesson %d", i),
			Duration: 10,
			Order:    i,
		}
		require.NoError(t, f.db.Create(&lesson).Error)
		course.Lessons = append(course.Lessons, lesson)
	}
	return &course
}

func TestEnroll(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)

	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, enrollment.Status)
	assert.Equal(t, 0, enrollment.Progress.Percentage)
	assert.False(t, enrollment.EnrolledAt.IsZero())

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 1, refreshed.EnrollmentCount)

	notified := f.notifier.byType(model.NotifyNewEnrollment)
	require.Len(t, notified, 1)
	assert.Equal(t, f.instructor.ID, notified[0].RecipientID)
	assert.Contains(t, notified[0].Message, "Sam Student")
}

func TestEnrollDuplicate(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)

	_, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.Enroll(f.student.ID, course.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 1, refreshed.EnrollmentCount)
}

func TestEnrollUnpublishedCourse(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	require.NoError(t, f.db.Model(&model.Course{}).Where("id = ?", course.ID).
		Update("is_published", false).Error)

	_, err := f.enrollment.Enroll(f.student.ID, course.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotPublished)
}

func TestEnrollMissingCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.enrollment.Enroll(f.student.ID, 9999)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestCompleteLessonProgressSequence(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 4)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	expected := []int{25, 50, 75, 100}
	for i, lesson := range course.Lessons {
		updated, err := f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, lesson.ID)
		require.NoError(t, err)
		assert.Equal(t, expected[i], updated.Progress.Percentage)
		assert.Equal(t, lesson.ID, *updated.Progress.LastAccessedLessonID)
	}
}

func TestCompleteLessonIdempotent(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 4)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	first, err := f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 25, first.Progress.Percentage)

	// Repeating the same lesson does not move the percentage.
	again, err := f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 25, again.Progress.Percentage)

	var completions int64
	require.NoError(t, f.db.Model(&model.LessonCompletion{}).
		Where("enrollment_id = ?", enrollment.ID).Count(&completions).Error)
	assert.EqualValues(t, 1, completions)
}

func TestCompleteLessonWrongCourse(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	other := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, other.Lessons[0].ID)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestCompleteLessonOwnership(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.CompleteLesson(f.instructor.ID, enrollment.ID, course.Lessons[0].ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestCourseCompletionFiresExactlyOnce(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)
	completed, err := f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[1].ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	completedAt := *completed.CompletedAt

	// Re-completing a lesson afterwards neither re-fires the completion
	// nor moves the completion timestamp.
	after, err := f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, after.Status)
	assert.Equal(t, completedAt.Unix(), after.CompletedAt.Unix())

	assert.Len(t, f.notifier.byType(model.NotifyCourseCompleted), 1)
	assert.Len(t, f.notifier.byType(model.NotifyCertificateReady), 1)
}

func TestDrop(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	dropped, err := f.enrollment.Drop(f.student.ID, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDropped, dropped.Status)

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 0, refreshed.EnrollmentCount)

	// Dropped is terminal.
	_, err = f.enrollment.Drop(f.student.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrEnrollmentNotActive)
}

func TestDropCompletedEnrollment(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)

	_, err = f.enrollment.Drop(f.student.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrEnrollmentNotActive)
}

func TestEnrollmentCountFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	// Force the denormalized counter out of sync before dropping.
	require.NoError(t, f.db.Model(&model.Course{}).Where("id = ?", course.ID).
		Update("enrollment_count", 0).Error)

	_, err = f.enrollment.Drop(f.student.ID, enrollment.ID)
	require.NoError(t, err)

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 0, refreshed.EnrollmentCount)
}

func TestRateValidation(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.Rate(f.student.ID, enrollment.ID, RatingRequest{Score: 0})
	assert.ErrorIs(t, err, util.ErrInvalidRatingScore)
	_, err = f.enrollment.Rate(f.student.ID, enrollment.ID, RatingRequest{Score: 6})
	assert.ErrorIs(t, err, util.ErrInvalidRatingScore)

	longReview := make([]rune, model.MaxReviewLength+1)
	for i := range longReview {
		longReview[i] = 'x'
	}
	_, err = f.enrollment.Rate(f.student.ID, enrollment.ID, RatingRequest{Score: 4, Review: string(longReview)})
	assert.ErrorIs(t, err, util.ErrReviewTooLong)

	// Failed validation leaves the enrollment and course untouched.
	var stored model.Enrollment
	require.NoError(t, f.db.First(&stored, enrollment.ID).Error)
	assert.False(t, stored.Rated())

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 0, refreshed.RatingCount)
}

func TestRateFoldsIntoCourseAverage(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	rated, err := f.enrollment.Rate(f.student.ID, enrollment.ID, RatingRequest{Score: 4, Review: "solid intro"})
	require.NoError(t, err)
	assert.Equal(t, 4, rated.Rating.Score)
	assert.NotNil(t, rated.Rating.RatedAt)

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 1, refreshed.RatingCount)
	assert.InDelta(t, 4.0, refreshed.RatingAverage, 0.001)

	notified := f.notifier.byType(model.NotifyNewRating)
	require.Len(t, notified, 1)
	assert.Equal(t, f.instructor.ID, notified[0].RecipientID)
	assert.Contains(t, notified[0].Message, "solid intro")
}

func TestRateResubmissionDoubleCounts(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.Rate(f.student.ID, enrollment.ID, RatingRequest{Score: 2})
	require.NoError(t, err)
	rated, err := f.enrollment.Rate(f.student.ID, enrollment.ID, RatingRequest{Score: 5})
	require.NoError(t, err)

	// The enrollment keeps only the latest score, but the course fold
	// counts both submissions.
	assert.Equal(t, 5, rated.Rating.Score)

	var refreshed model.Course
	require.NoError(t, f.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 2, refreshed.RatingCount)
	assert.InDelta(t, 3.5, refreshed.RatingAverage, 0.001)
}

func TestIssueCertificate(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	// Not completed yet.
	_, err = f.enrollment.IssueCertificate(f.instructor.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotCompleted)

	_, err = f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)

	// Only the course's instructor may issue.
	_, err = f.enrollment.IssueCertificate(f.student.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	issued, err := f.enrollment.IssueCertificate(f.instructor.ID, enrollment.ID)
	require.NoError(t, err)
	assert.True(t, issued.CertificateIssued)
	assert.Equal(t, fmt.Sprintf("/certificates/%d", enrollment.ID), issued.CertificateURL)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.Get(f.student.ID, enrollment.ID)
	assert.NoError(t, err)
	_, err = f.enrollment.Get(f.instructor.ID, enrollment.ID)
	assert.NoError(t, err)

	outsider := model.User{Name: "Eve", Email: "eve@example.com", Password: "x", Role: model.Student}
	require.NoError(t, f.db.Create(&outsider).Error)
	_, err = f.enrollment.Get(outsider.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestCourseStudents(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	_, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	students, err := f.enrollment.CourseStudents(f.instructor.ID, course.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, f.student.ID, students[0].StudentID)

	_, err = f.enrollment.CourseStudents(f.student.ID, course.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestLessonAddedAfterCompletionLowersPercentage(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 2)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)

	// A third lesson appears; the derived percentage reflects it on the
	// next progress mutation.
	extra := model.Lesson{CourseID: course.ID, Title: "Bonus", Duration: 5, Order: 3}
	require.NoError(t, f.db.Create(&extra).Error)

	updated, err := f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 67, updated.Progress.Percentage)
	assert.Equal(t, model.StatusActive, updated.Status)
}
