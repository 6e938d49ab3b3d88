package controller

import (
	"edunexus_backend/internal/service"
	"edunexus_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	UploadService *service.UploadService
}

func NewUploadController(uploadService *service.UploadService) *UploadController {
	return &UploadController{UploadService: uploadService}
}

// UploadLessonVideo godoc
// @Summary Upload a lesson video (owner only)
// @Description Stores the video, probes its duration, and generates a thumbnail
// @Tags courses
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Param   lessonId path int true "Lesson ID"
// @Param   file formData file true "Video file"
// @Success 200 {object} util.Response{data=model.Lesson} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/lessons/{lessonId}/video [post]
func (c *UploadController) UploadLessonVideo(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}

	claims := util.GetUserFromContext(ctx)
	lesson, err := c.UploadService.UploadLessonVideo(
		ctx,
		claims.UserID,
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("lessonId")),
		file,
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLessonVideo godoc
// @Summary Remove a lesson video (owner only)
// @Description Deletes the stored video and thumbnail and clears the lesson's video fields
// @Tags courses
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Course ID"
// @Param   lessonId path int true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Lesson} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/courses/{id}/lessons/{lessonId}/video [delete]
func (c *UploadController) DeleteLessonVideo(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lesson, err := c.UploadService.DeleteLessonVideo(
		ctx,
		claims.UserID,
		util.MustParseUint(ctx.Param("id")),
		util.MustParseUint(ctx.Param("lessonId")),
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}
