package models

// CartItem is a menu item snapshot held in a cart and copied into orders.
// Price is a decimal string such as "12.50".
type CartItem struct {
	ID           string `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	Price        string `json:"price" bson:"price"`
	RestaurantID string `json:"restaurantId,omitempty" bson:"restaurantId,omitempty"`
}

// CartView is the cart as returned to clients
type CartView struct {
	Items []CartItem `json:"items"`
	Total string     `json:"total"`
}

// AddToCartRequest identifies the menu item to add
type AddToCartRequest struct {
	RestaurantID string `json:"restaurantId"`
	ItemID       string `json:"itemId"`
}
