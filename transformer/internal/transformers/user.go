package transformers

import (
	"context"
	"fmt"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
)

// UserOrder is the demo transform: it consolidates user and order details
// into a flat record, skipping fields that are absent.
type UserOrder struct{}

func (UserOrder) Transform(_ context.Context, event envelope.Event) (envelope.Event, error) {
	user := event.Section("user_data")
	details := user.Section("details")
	order := event.Section("order_info")

	out := envelope.Event{}

	first := user.String("first_name", "")
	last := user.String("last_name", "")
	if first != "" && last != "" {
		out["full_name"] = fmt.Sprintf("%s %s", first, last)
	}
	if age, ok := details.Number("age"); ok {
		out["age_of_user"] = age
	}
	if city := details.String("city", ""); city != "" {
		out["user_location"] = city
	}
	if orderID := order.String("order_id", ""); orderID != "" {
		out["transaction_id"] = orderID
	}

	return out, nil
}
