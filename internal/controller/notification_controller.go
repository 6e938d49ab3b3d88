package controller

import (
	"strconv"

	"edunexus_backend/internal/service"
	"edunexus_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{NotificationService: notificationService}
}

// List godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "Page number" default(1)
// @Param   limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	notifications, total, err := c.NotificationService.List(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  notifications,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	count, err := c.NotificationService.UnreadCount(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags notifications
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Notification ID"
// @Success 200 {object} util.Response{data=model.Notification} "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/notifications/{id}/read [patch]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	notification, err := c.NotificationService.MarkRead(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, notification)
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "Success"
// @Router /api/notifications/read-all [patch]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.NotificationService.MarkAllRead(claims.UserID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Delete godoc
// @Summary Delete a notification
// @Tags notifications
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Notification ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /api/notifications/{id} [delete]
func (c *NotificationController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.NotificationService.Delete(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
