package domain

import "fmt"

// Plan is a fixed credit bundle offered for purchase. Price is in rupees.
type Plan struct {
	Credits int `json:"credits"`
	Price   int `json:"amount"`
}

// Plans are the bundles on sale, smallest first.
var Plans = []Plan{
	{Credits: 10, Price: 199},
	{Credits: 25, Price: 399},
	{Credits: 50, Price: 699},
}

// FindPlan returns the plan granting the given number of credits.
func FindPlan(credits int) (Plan, error) {
	for _, p := range Plans {
		if p.Credits == credits {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("no plan grants %d credits", credits)
}

// Order is a payment-gateway order created for a plan.
type Order struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentConfirmation is what the hosted checkout hands back on success.
type PaymentConfirmation struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// PurchaseResult summarises a completed credit purchase.
type PurchaseResult struct {
	Balance  int    `json:"balance"`
	Redirect string `json:"redirect"`
	// Warning is set when the payment went through but the balance could
	// not be re-read.
	Warning string `json:"warning,omitempty"`
}
