package model

type CheckoutRequest struct {
	Name      string `json:"name"`
	Card      string `json:"card"`
	CVV       string `json:"cvv"`
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Apartment string `json:"apartment"`
}
