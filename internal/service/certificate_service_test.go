package service

import (
	"testing"

	"edunexus_backend/internal/config"
	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCertificateService(f *fixture) *CertificateService {
	cfg := &config.Config{}
	cfg.App.Name = "edunexus"
	cfg.App.FrontendURL = "https://edunexus.example.com"
	return NewCertificateService(repository.NewEnrollmentRepository(f.db), cfg)
}

func (f *fixture) completedEnrollment(t *testing.T) (*model.Course, *model.Enrollment) {
	t.Helper()

	course := f.publishedCourse(t, 1)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)
	enrollment, err = f.enrollment.CompleteLesson(f.student.ID, enrollment.ID, course.Lessons[0].ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, enrollment.Status)
	return course, enrollment
}

func TestRenderCertificate(t *testing.T) {
	f := newFixture(t)
	certs := newCertificateService(f)
	_, enrollment := f.completedEnrollment(t)

	rendered, err := certs.Render(f.student.ID, enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, "Certificate_Sam_Student_Go_from_Scratch.pdf", rendered.Filename)
	require.Greater(t, len(rendered.Content), 4)
	assert.Equal(t, "%PDF", string(rendered.Content[:4]))
}

func TestRenderCertificateInstructorAccess(t *testing.T) {
	f := newFixture(t)
	certs := newCertificateService(f)
	_, enrollment := f.completedEnrollment(t)

	_, err := certs.Render(f.instructor.ID, enrollment.ID)
	assert.NoError(t, err)

	outsider := model.User{Name: "Eve", Email: "eve@example.com", Password: "x", Role: model.Student}
	require.NoError(t, f.db.Create(&outsider).Error)
	_, err = certs.Render(outsider.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestRenderCertificateRequiresCompletion(t *testing.T) {
	f := newFixture(t)
	certs := newCertificateService(f)

	course := f.publishedCourse(t, 2)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	_, err = certs.Render(f.student.ID, enrollment.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotCompleted)
}

func TestVerifyCertificate(t *testing.T) {
	f := newFixture(t)
	certs := newCertificateService(f)
	course, enrollment := f.completedEnrollment(t)

	result, err := certs.Verify(enrollment.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Sam Student", result.StudentName)
	assert.Equal(t, course.Title, result.CourseTitle)
	assert.Equal(t, course.Category, result.CourseCategory)
	assert.Equal(t, "Ada Instructor", result.InstructorName)
	assert.NotNil(t, result.CompletedAt)
}

func TestVerifyUnknownCertificate(t *testing.T) {
	f := newFixture(t)
	certs := newCertificateService(f)

	result, err := certs.Verify(424242)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Empty(t, result.StudentName)
	assert.Empty(t, result.CourseTitle)
	assert.Nil(t, result.CompletedAt)
}

func TestVerifyIncompleteEnrollment(t *testing.T) {
	f := newFixture(t)
	certs := newCertificateService(f)

	course := f.publishedCourse(t, 2)
	enrollment, err := f.enrollment.Enroll(f.student.ID, course.ID)
	require.NoError(t, err)

	result, err := certs.Verify(enrollment.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Empty(t, result.StudentName)
}
