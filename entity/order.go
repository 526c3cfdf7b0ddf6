package entity

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderCanceled  OrderStatus = "Canceled"
	OrderCompleted OrderStatus = "Completed"
)

// transitions is the full set of legal status changes. Canceled and
// Completed are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderCanceled, OrderCompleted},
	OrderCanceled:  {},
	OrderCompleted: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order status transition from=%s to=%s", e.From, e.To)
}

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type BillingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address"`
	Address2  string `json:"address2,omitempty"`
	Country   string `json:"country"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	Status          OrderStatus `json:"status"`
	BillingInfo     BillingInfo `json:"billingInfo"`
	ProviderOrderID string      `json:"providerOrderId,omitempty"`
	PayerName       string      `json:"payerName,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Transition moves the order to the given status or returns
// IllegalTransitionError, leaving the order untouched.
func (o *Order) Transition(to OrderStatus) error {
	if !o.Status.CanTransition(to) {
		return IllegalTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}
