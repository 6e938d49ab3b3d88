package service

import (
	"testing"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCourseRequest() CreateCourseRequest {
	return CreateCourseRequest{
		Title:       "Go Concurrency Patterns",
		Description: "Channels, goroutines, and the patterns that tie them together.",
		Category:    "Web Development",
	}
}

func TestCreateCourse(t *testing.T) {
	f := newFixture(t)

	course, err := f.course.Create(f.instructor.ID, validCourseRequest())
	require.NoError(t, err)

	assert.Equal(t, f.instructor.ID, course.InstructorID)
	assert.Equal(t, model.LevelBeginner, course.Level)
	assert.Equal(t, "English", course.Language)
	assert.False(t, course.IsPublished)
}

func TestCreateCourseRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)

	req := validCourseRequest()
	req.Category = "Time Travel"
	_, err := f.course.Create(f.instructor.ID, req)
	assert.ErrorIs(t, err, util.ErrInvalidCategory)
}

func TestListPublishedFilters(t *testing.T) {
	f := newFixture(t)
	published := f.publishedCourse(t, 2)

	draft, err := f.course.Create(f.instructor.ID, validCourseRequest())
	require.NoError(t, err)

	courses, err := f.course.ListPublished(repository.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, published.ID, courses[0].ID)

	// Unpublished courses only surface once published.
	_, err = f.course.TogglePublish(f.instructor.ID, draft.ID)
	require.NoError(t, err)

	courses, err = f.course.ListPublished(repository.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	courses, err = f.course.ListPublished(repository.CourseFilter{Search: "Concurrency"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, draft.ID, courses[0].ID)
}

func TestUpdateCourseOwnership(t *testing.T) {
	f := newFixture(t)
	course, err := f.course.Create(f.instructor.ID, validCourseRequest())
	require.NoError(t, err)

	title := "Go Concurrency in Practice"
	_, err = f.course.Update(f.student.ID, course.ID, UpdateCourseRequest{Title: &title})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	updated, err := f.course.Update(f.instructor.ID, course.ID, UpdateCourseRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
}

func TestTogglePublish(t *testing.T) {
	f := newFixture(t)
	course, err := f.course.Create(f.instructor.ID, validCourseRequest())
	require.NoError(t, err)

	published, err := f.course.TogglePublish(f.instructor.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	assert.NotNil(t, published.PublishedAt)

	unpublished, err := f.course.TogglePublish(f.instructor.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
}

func TestAddLessonAssignsOrderAndDuration(t *testing.T) {
	f := newFixture(t)
	course, err := f.course.Create(f.instructor.ID, validCourseRequest())
	require.NoError(t, err)

	_, err = f.course.AddLesson(f.instructor.ID, course.ID, LessonRequest{Title: "Intro", Duration: 10})
	require.NoError(t, err)
	withLessons, err := f.course.AddLesson(f.instructor.ID, course.ID, LessonRequest{Title: "Channels", Duration: 25})
	require.NoError(t, err)

	require.Len(t, withLessons.Lessons, 2)
	assert.Equal(t, 1, withLessons.Lessons[0].Order)
	assert.Equal(t, 2, withLessons.Lessons[1].Order)

	var stored model.Course
	require.NoError(t, f.db.First(&stored, course.ID).Error)
	assert.Equal(t, 35, stored.Duration)
}

func TestAddLessonNotifiesEnrolledStudents(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 1)
	_, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = f.course.AddLesson(f.instructor.ID, course.ID, LessonRequest{Title: "Bonus", Duration: 5})
	require.NoError(t, err)

	notified := f.notifier.byType(model.NotifyNewLesson)
	require.Len(t, notified, 1)
	assert.Equal(t, f.student.ID, notified[0].RecipientID)
}

func TestDeleteLesson(t *testing.T) {
	f := newFixture(t)
	course, err := f.course.Create(f.instructor.ID, validCourseRequest())
	require.NoError(t, err)

	withLesson, err := f.course.AddLesson(f.instructor.ID, course.ID, LessonRequest{Title: "Intro", Duration: 10})
	require.NoError(t, err)
	lessonID := withLesson.Lessons[0].ID

	require.NoError(t, f.course.DeleteLesson(f.instructor.ID, course.ID, lessonID))

	var count int64
	require.NoError(t, f.db.Model(&model.Lesson{}).Where("course_id = ?", course.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDeleteCourseRemovesLessons(t *testing.T) {
	f := newFixture(t)
	course := f.publishedCourse(t, 3)

	require.NoError(t, f.course.Delete(f.instructor.ID, course.ID))

	var lessons int64
	require.NoError(t, f.db.Model(&model.Lesson{}).Where("course_id = ?", course.ID).Count(&lessons).Error)
	assert.EqualValues(t, 0, lessons)
}
