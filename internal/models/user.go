package models

import "encoding/json"

// Role decides which landing page and routes a user gets
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleOwner
}

// UserProfile is stored under users/{uid}. Email and Role are fixed after
// signup; LoyaltyPoints only changes through atomic adjustments.
type UserProfile struct {
	UID            string `json:"uid" bson:"_id"`
	Email          string `json:"email" bson:"email"`
	Role           Role   `json:"role" bson:"role"`
	Name           string `json:"name" bson:"name"`
	Address        string `json:"address" bson:"address"`
	PhoneNumber    string `json:"phoneNumber" bson:"phoneNumber"`
	LoyaltyPoints  int64  `json:"loyaltyPoints" bson:"loyaltyPoints"`
	RestaurantName string `json:"restaurantName,omitempty" bson:"restaurantName,omitempty"`
}

// ProfileUpdate holds the editable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	Address     *string `json:"address,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// RedeemRequest keeps Amount raw so numeric strings and garbage can be told apart
type RedeemRequest struct {
	Amount json.RawMessage `json:"amount"`
}

// SignupRequest creates an account and its profile
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           Role   `json:"role"`
	RestaurantName string `json:"restaurantName,omitempty"`
}

// LoginRequest signs an existing account in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by signup and login
type Session struct {
	Token     string `json:"token"`
	UID       string `json:"uid"`
	Role      Role   `json:"role"`
	SessionID string `json:"sessionId"`
	Redirect  string `json:"redirect"`
}
