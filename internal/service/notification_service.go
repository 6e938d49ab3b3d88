package service

import (
	"time"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"
	"edunexus_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is the outbound notification sink consumed by the enrollment
// and course services. Delivery is fire-and-forget, at-most-once:
// implementations must never propagate failures back to the caller.
type Notifier interface {
	Notify(recipientID uint, ntype model.NotificationType, title, message string, data model.NotificationData)
}

type NotificationService struct {
	Repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{Repo: repo}
}

// Notify persists the notification asynchronously. A failed write is
// logged and dropped; it never fails or rolls back the state change
// that produced it.
func (s *NotificationService) Notify(recipientID uint, ntype model.NotificationType, title, message string, data model.NotificationData) {
	notification := &model.Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Message:     message,
		Data:        data,
	}

	go func() {
		if err := s.Repo.Create(notification); err != nil {
			logger.Log.Warn("notification delivery failed",
				zap.Uint("recipient", recipientID),
				zap.String("type", string(ntype)),
				zap.Error(err))
		}
	}()
}

func (s *NotificationService) List(recipientID uint, page, limit int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Repo.FindByRecipient(recipientID, page, limit)
}

func (s *NotificationService) UnreadCount(recipientID uint) (int64, error) {
	return s.Repo.UnreadCount(recipientID)
}

func (s *NotificationService) MarkRead(callerID, notificationID uint) (*model.Notification, error) {
	notification, err := s.Repo.FindByID(notificationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.RecipientID != callerID {
		return nil, util.ErrPermissionDenied
	}

	notification.MarkAsRead(time.Now())
	if err := s.Repo.Update(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *NotificationService) MarkAllRead(callerID uint) error {
	return s.Repo.MarkAllRead(callerID, time.Now())
}

func (s *NotificationService) Delete(callerID, notificationID uint) error {
	notification, err := s.Repo.FindByID(notificationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrNotificationNotFound
		}
		return err
	}
	if notification.RecipientID != callerID {
		return util.ErrPermissionDenied
	}
	return s.Repo.Delete(notification)
}
