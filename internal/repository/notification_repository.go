package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"edunexus_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const unreadCountTTL = 30 * time.Second

type NotificationRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewNotificationRepository(db *gorm.DB, rdb *redis.Client) *NotificationRepository {
	return &NotificationRepository{DB: db, Redis: rdb}
}

func unreadCountKey(recipientID uint) string {
	return fmt.Sprintf("notif:unread:%d", recipientID)
}

func (r *NotificationRepository) Create(notification *model.Notification) error {
	if err := r.DB.Create(notification).Error; err != nil {
		return err
	}
	r.invalidateUnreadCount(notification.RecipientID)
	return nil
}

func (r *NotificationRepository) FindByID(id uint) (*model.Notification, error) {
	var notification model.Notification
	err := r.DB.First(&notification, id).Error
	return &notification, err
}

func (r *NotificationRepository) FindByRecipient(recipientID uint, page, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	q := r.DB.Model(&model.Notification{}).Where("recipient_id = ?", recipientID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// UnreadCount serves from Redis when available; the cache is dropped on
// every write for that recipient.
func (r *NotificationRepository) UnreadCount(recipientID uint) (int64, error) {
	ctx := context.Background()

	if r.Redis != nil {
		if cached, err := r.Redis.Get(ctx, unreadCountKey(recipientID)).Result(); err == nil {
			if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return n, nil
			}
		}
	}

	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if r.Redis != nil {
		r.Redis.Set(ctx, unreadCountKey(recipientID), count, unreadCountTTL)
	}
	return count, nil
}

func (r *NotificationRepository) Update(notification *model.Notification) error {
	if err := r.DB.Save(notification).Error; err != nil {
		return err
	}
	r.invalidateUnreadCount(notification.RecipientID)
	return nil
}

func (r *NotificationRepository) MarkAllRead(recipientID uint, now time.Time) error {
	err := r.DB.Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).
		Error
	if err != nil {
		return err
	}
	r.invalidateUnreadCount(recipientID)
	return nil
}

func (r *NotificationRepository) Delete(notification *model.Notification) error {
	if err := r.DB.Delete(notification).Error; err != nil {
		return err
	}
	r.invalidateUnreadCount(notification.RecipientID)
	return nil
}

func (r *NotificationRepository) invalidateUnreadCount(recipientID uint) {
	if r.Redis == nil {
		return
	}
	r.Redis.Del(context.Background(), unreadCountKey(recipientID))
}
