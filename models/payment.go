// models/payment.go
package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records a Stripe PaymentIntent that funds a business wallet.
// CreditedAt is set exactly once, when the amount lands in wallet_balance.
type Payment struct {
	ID                    string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID                string        `gorm:"index;not null" json:"user_id"`
	StripePaymentIntentID string        `gorm:"uniqueIndex;not null" json:"stripe_payment_intent_id"`
	Amount                float64       `gorm:"not null" json:"amount"`
	Currency              string        `gorm:"type:varchar(8);not null" json:"currency"`
	Status                PaymentStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreditedAt            *time.Time    `json:"credited_at,omitempty"`
	CreatedAt             time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}
