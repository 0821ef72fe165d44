package models

import "encoding/json"

// Restaurant is keyed by its owner's uid
type Restaurant struct {
	ID             string `json:"id" bson:"_id"`
	RestaurantName string `json:"restaurantName" bson:"restaurantName"`
}

// MenuItem belongs to a restaurant and is managed by its owner
type MenuItem struct {
	ID           string `json:"id" bson:"_id"`
	RestaurantID string `json:"restaurantId" bson:"restaurantId"`
	Name         string `json:"name" bson:"name"`
	Price        string `json:"price" bson:"price"`
}

// CartItem snapshots the menu item for a cart
func (m MenuItem) CartItem() CartItem {
	return CartItem{
		ID:           m.ID,
		Name:         m.Name,
		Price:        m.Price,
		RestaurantID: m.RestaurantID,
	}
}

// MenuItemRequest is the owner's add-item payload
type MenuItemRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Menu is everything the restaurant page needs in one response.
// AverageRating is a number literal such as 4.0, or 0 without reviews.
type Menu struct {
	Restaurant    Restaurant  `json:"restaurant"`
	Items         []MenuItem  `json:"items"`
	Reviews       []Review    `json:"reviews"`
	AverageRating json.Number `json:"averageRating"`
}
