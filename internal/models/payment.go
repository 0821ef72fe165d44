package models

// PaymentMethod is one of the simulated payment options
type PaymentMethod string

const (
	PaymentUPI        PaymentMethod = "upi"
	PaymentCard       PaymentMethod = "card"
	PaymentNetBanking PaymentMethod = "netbanking"
)

// CheckoutRequest carries the payment selection. Card and bank fields are
// only checked for presence and are never stored.
type CheckoutRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CardNumber    string        `json:"cardNumber,omitempty"`
	ExpiryDate    string        `json:"expiryDate,omitempty"`
	CVV           string        `json:"cvv,omitempty"`
	BankName      string        `json:"bankName,omitempty"`
	AccountNumber string        `json:"accountNumber,omitempty"`
	Password      string        `json:"password,omitempty"`
}
