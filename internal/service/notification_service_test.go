package service

import (
	"fmt"
	"testing"

	"edunexus_backend/internal/model"
	"edunexus_backend/internal/repository"
	"edunexus_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationService(f *fixture) *NotificationService {
	return NewNotificationService(repository.NewNotificationRepository(f.db, nil))
}

func (f *fixture) seedNotifications(t *testing.T, recipientID uint, count int) []model.Notification {
	t.Helper()

	out := make([]model.Notification, count)
	for i := range out {
		out[i] = model.Notification{
			RecipientID: recipientID,
			Type:        model.NotifyAnnouncement,
			Title:       fmt.Sprintf("Announcement %d", i+1),
			Message:     "Platform maintenance this weekend.",
		}
		require.NoError(t, f.db.Create(&out[i]).Error)
	}
	return out
}

func TestNotificationList(t *testing.T) {
	f := newFixture(t)
	notifs := newNotificationService(f)
	f.seedNotifications(t, f.student.ID, 3)
	f.seedNotifications(t, f.instructor.ID, 1)

	list, total, err := notifs.List(f.student.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 3)

	// Out-of-range paging inputs fall back to defaults.
	list, total, err = notifs.List(f.student.ID, 0, -5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 3)
}

func TestNotificationUnreadCount(t *testing.T) {
	f := newFixture(t)
	notifs := newNotificationService(f)
	seeded := f.seedNotifications(t, f.student.ID, 2)

	count, err := notifs.UnreadCount(f.student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = notifs.MarkRead(f.student.ID, seeded[0].ID)
	require.NoError(t, err)

	count, err = notifs.UnreadCount(f.student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestNotificationMarkReadOwnership(t *testing.T) {
	f := newFixture(t)
	notifs := newNotificationService(f)
	seeded := f.seedNotifications(t, f.student.ID, 1)

	_, err := notifs.MarkRead(f.instructor.ID, seeded[0].ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = notifs.MarkRead(f.student.ID, 98765)
	assert.ErrorIs(t, err, util.ErrNotificationNotFound)

	read, err := notifs.MarkRead(f.student.ID, seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)
}

func TestNotificationMarkAllRead(t *testing.T) {
	f := newFixture(t)
	notifs := newNotificationService(f)
	f.seedNotifications(t, f.student.ID, 3)

	require.NoError(t, notifs.MarkAllRead(f.student.ID))

	count, err := notifs.UnreadCount(f.student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestNotificationDelete(t *testing.T) {
	f := newFixture(t)
	notifs := newNotificationService(f)
	seeded := f.seedNotifications(t, f.student.ID, 1)

	assert.ErrorIs(t, notifs.Delete(f.instructor.ID, seeded[0].ID), util.ErrPermissionDenied)
	require.NoError(t, notifs.Delete(f.student.ID, seeded[0].ID))

	_, _, err := notifs.List(f.student.ID, 1, 20)
	require.NoError(t, err)
	count, err := notifs.UnreadCount(f.student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
