package controller

import (
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/service"
	"edunexus_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// List godoc
// @Summary List published courses
// @Description Browse the public catalog with optional filters
// @Tags courses
// @Produce  json
// @Param   category query string false "Category filter"
// @Param   level query string false "Level filter" Enums(beginner, intermediate, advanced)
// @Param   search query string false "Title search"
// @Param   sort query string false "Sort order" Enums(newest, popular, rating)
// @Success 200 {object} util.Response{data=[]model.Course} "Success"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	filter := repository.CourseFilter{
		Category: ctx.Query("category"),
		Level:    ctx.Query("level"),
		Search:   ctx.Query("search"),
		Sort:     ctx.Query("sort"),
	}

	courses, err := c.CourseService.ListPublished(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// Get godoc
// @Summary Get a course with its lessons
// @Tags courses
// @Produce  json
// @Param   id path int true "Course ID"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	course, err := c.CourseService.GetByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Create godoc
// @Summary Create a course (Instructor only)
// @Tags courses
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   request body service.CreateCourseRequest true "Course data"
// @Success 201 {object} util.Response{data=model.Course} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /api/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course, err := c.CourseService.Create(claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// Mine godoc
// @Summary List the caller's courses (Instructor only)
// @Tags courses
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course} "Success"
// @Router /api/courses/mine [get]
func (c *CourseController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courses, err := c.CourseService.InstructorCourses(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// Update godoc
// @Summary Update a course (owner only)
// @Tags courses
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Param   request body service.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	var req service.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course, err := c.CourseService.Update(claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Delete godoc
// @Summary Delete a course (owner only)
// @Tags courses
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Success 200 {object} util.Response "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.CourseService.Delete(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// TogglePublish godoc
// @Summary Publish or unpublish a course (owner only)
// @Tags courses
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/publish [patch]
func (c *CourseController) TogglePublish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	course, err := c.CourseService.TogglePublish(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// AddLesson godoc
// @Summary Add a lesson to a course (owner only)
// @Tags courses
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Param   request body service.LessonRequest true "Lesson data"
// @Success 201 {object} util.Response{data=model.Course} "Created"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course, err := c.CourseService.AddLesson(claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateLesson godoc
// @Summary Update a lesson (owner only)
// @Tags courses
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Param   lessonId path int true "Lesson ID"
// @Param   request body service.LessonRequest true "Lesson data"
// @Success 200 {object} util.Response{data=model.Lesson} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/lessons/{lessonId} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	lesson, err := c.CourseService.UpdateLesson(
		claims.UserID,
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("lessonId")),
		req,
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary Delete a lesson (owner only)
// @Tags courses
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Param   lessonId path int true "Lesson ID"
// @Success 200 {object} util.Response "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/lessons/{lessonId} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	err := c.CourseService.DeleteLesson(
		claims.UserID,
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("lessonId")),
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
