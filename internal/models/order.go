package models

import "time"

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusReady   OrderStatus = "ready"
)

// Order is a placed order. Items is the cart snapshot taken at checkout.
type Order struct {
	ID             string        `json:"id" bson:"_id"`
	UserID         string        `json:"userId" bson:"userId"`
	Items          []CartItem    `json:"items" bson:"items"`
	Total          string        `json:"total" bson:"total"`
	Timestamp      time.Time     `json:"timestamp" bson:"timestamp"`
	Status         OrderStatus   `json:"status" bson:"status"`
	PaymentMethod  PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`
	PointsCredited bool          `json:"pointsCredited" bson:"pointsCredited"`
}

// HasRestaurant reports whether any item in the order came from restaurantID.
func (o Order) HasRestaurant(restaurantID string) bool {
	for _, item := range o.Items {
		if item.RestaurantID == restaurantID {
			return true
		}
	}
	return false
}

// OrderConfirmation is returned by checkout and carries everything the
// confirmation page shows, so the client never re-fetches the order.
type OrderConfirmation struct {
	OrderID       string        `json:"orderId"`
	Items         []CartItem    `json:"items"`
	Total         string        `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PointsEarned  int64         `json:"pointsEarned"`
}

// Dashboard is the owner's view of the order collection
type Dashboard struct {
	Pending         []Order `json:"pending"`
	DailyEarnings   string  `json:"dailyEarnings"`
	MonthlyEarnings string  `json:"monthlyEarnings"`
}
