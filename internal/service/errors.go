package service

import "errors"

// Validation errors are returned before any store call
var (
	ErrRatingRequired        = errors.New("please select a rating")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed       = errors.New("you have already reviewed this restaurant")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrPaymentMethodRequired = errors.New("please select a payment method")
	ErrUnknownPaymentMethod  = errors.New("payment method must be upi, card or netbanking")
	ErrCardDetailsRequired   = errors.New("card number, expiry date and CVV are required")
	ErrBankDetailsRequired   = errors.New("bank name, account number and password are required")
	ErrMenuItemNameRequired  = errors.New("menu item name is required")
	ErrMenuItemPriceRequired = errors.New("menu item price is required")
	ErrInvalidPrice          = errors.New("price must be a non-negative decimal")
	ErrItemIDRequired        = errors.New("restaurant id and item id are required")
	ErrInvalidRedeemAmount   = errors.New("please enter a valid positive amount to redeem")
	ErrNotEnoughPoints       = errors.New("not enough loyalty points")
)
