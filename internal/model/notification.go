package model

import "time"

type NotificationType string

const (
	NotifyNewCourse        NotificationType = "new_course"
	NotifyNewEnrollment    NotificationType = "new_enrollment"
	NotifyCourseCompleted  NotificationType = "course_completed"
	NotifyNewRating        NotificationType = "new_rating"
	NotifyCourseUpdated    NotificationType = "course_updated"
	NotifyCertificateReady NotificationType = "certificate_ready"
	NotifyNewLesson        NotificationType = "new_lesson"
	NotifyAnnouncement     NotificationType = "announcement"
)

// NotificationData carries optional references to the entities a
// notification is about.
type NotificationData struct {
	CourseID     *uint `json:"courseId,omitempty"`
	EnrollmentID *uint `json:"enrollmentId,omitempty"`
	UserID       *uint `json:"userId,omitempty"`
}

// swagger:model Notification
type Notification struct {
	BaseModel
	RecipientID uint             `gorm:"index:idx_recipient_read;not null" json:"recipientId"`
	Type        NotificationType `gorm:"size:50;not null" json:"type"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Message     string           `gorm:"size:1000;not null" json:"message"`
	Data        NotificationData `gorm:"embedded;embeddedPrefix:data_" json:"data"`
	IsRead      bool             `gorm:"index:idx_recipient_read;default:false" json:"isRead"`
	ReadAt      *time.Time       `json:"readAt,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) MarkAsRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	t := now
	n.ReadAt = &t
}
