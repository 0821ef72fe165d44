package models

import "time"

// Review is a customer's rating of a restaurant. Timestamp may be missing
// on documents written by older clients.
type Review struct {
	ID           string     `json:"id" bson:"_id"`
	RestaurantID string     `json:"restaurantId" bson:"restaurantId"`
	UserID       string     `json:"userId" bson:"userId"`
	Rating       int        `json:"rating" bson:"rating"`
	Comment      string     `json:"comment" bson:"comment"`
	Timestamp    *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// ReviewRequest is the review form payload
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
