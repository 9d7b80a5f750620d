package enums

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrderApproved NotificationType = "order_approved"
	NotificationTypeOrderRejected NotificationType = "order_rejected"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderApproved,
	NotificationTypeOrderRejected,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}
