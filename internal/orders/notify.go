package orders

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// decisionNotification builds the customer notice for approve and reject.
// Other events notify nobody.
func decisionNotification(order *models.Order, event Event, notes *string) (notifications.Request, bool) {
	ref := shortRef(order)
	link := fmt.Sprintf("/orders/%s", order.ID)
	orderID := order.ID
	req := notifications.Request{UserID: order.UserID, OrderID: &orderID, Link: &link}

	switch event {
	case EventApprove:
		req.Type = enums.NotificationTypeOrderApproved
		req.Title = "Order approved"
		req.Message = fmt.Sprintf("Your order %s has been approved and is being prepared.", ref)
	case EventReject:
		req.Type = enums.NotificationTypeOrderRejected
		req.Title = "Order rejected"
		req.Message = fmt.Sprintf("Your order %s was rejected.", ref)
		if notes != nil && strings.TrimSpace(*notes) != "" {
			req.Message = fmt.Sprintf("%s Reason: %s", req.Message, strings.TrimSpace(*notes))
		}
	default:
		return notifications.Request{}, false
	}
	return req, true
}

func shortRef(order *models.Order) string {
	return "#" + strings.ToUpper(order.ID.String()[:8])
}
