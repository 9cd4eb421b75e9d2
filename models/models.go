package models

import (
	"time"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"

	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Currency string   `json:"currency"`
	Duration string   `json:"duration"`
	Features []string `json:"features"`
}

type Payment struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	GatewayOrderID   string    `json:"order_id"`
	GatewayPaymentID *string   `json:"payment_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	PlanType         string    `json:"plan_type"`
	CreatedAt        time.Time `json:"created_at"`
}

type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanType  string    `json:"plan_type"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
