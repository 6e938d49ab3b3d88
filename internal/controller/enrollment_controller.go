package controller

import (
	"edunexus_backend/internal/service"
	"edunexus_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary Enroll in a published course
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Success 201 {object} util.Response{data=model.Enrollment} "Created"
// @Failure 400 {object} util.Response "Already enrolled or course not published"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.Enroll(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// Mine godoc
// @Summary List the caller's enrollments
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment} "Success"
// @Router /api/enrollments [get]
func (c *EnrollmentController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.MyEnrollments(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// Get godoc
// @Summary Get one enrollment with progress detail
// @Description Visible to the enrolled student and the course's instructor
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/enrollments/{id} [get]
func (c *EnrollmentController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.Get(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CompleteLesson godoc
// @Summary Mark a lesson as completed
// @Description Idempotent per lesson; recomputes progress and may complete the course
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Enrollment ID"
// @Param   lessonId path int true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/enrollments/{id}/lessons/{lessonId}/complete [post]
func (c *EnrollmentController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.CompleteLesson(
		claims.UserID,
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("lessonId")),
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// Drop godoc
// @Summary Drop an active enrollment
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 400 {object} util.Response "Enrollment not active"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/enrollments/{id}/drop [post]
func (c *EnrollmentController) Drop(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.Drop(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// Rate godoc
// @Summary Rate the enrolled course
// @Description Score 1 to 5 with an optional review; resubmission overwrites
// @Tags enrollments
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Enrollment ID"
// @Param   request body service.RatingRequest true "Rating"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 400 {object} util.Response "Invalid score or review too long"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/enrollments/{id}/rate [post]
func (c *EnrollmentController) Rate(ctx *gin.Context) {
	var req service.RatingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.Rate(claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// IssueCertificate godoc
// @Summary Issue a certificate for a completed enrollment (Instructor only)
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Enrollment ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 400 {object} util.Response "Course not completed"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /api/enrollments/{id}/certificate [post]
func (c *EnrollmentController) IssueCertificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollment, err := c.EnrollmentService.IssueCertificate(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// CourseStudents godoc
// @Summary List a course's enrollments (Instructor only)
// @Tags enrollments
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Success 200 {object} util.Response{data=[]model.Enrollment} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /api/courses/{id}/students [get]
func (c *EnrollmentController) CourseStudents(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.CourseStudents(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}
