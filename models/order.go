package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Receipt statuses
const (
	ReceiptStatusDraft = "draft"
	ReceiptStatusSent  = "sent"
	ReceiptStatusPaid  = "paid"
)

// Order is created by converting an approved quote. The client and financial
// fields are copied from the quote at conversion time, so later edits to the
// quote never change an existing order.
type Order struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	QuoteID              uint           `gorm:"not null;index" json:"quote_id"` // originating quote
	Quote                Quote          `gorm:"foreignKey:QuoteID" json:"quote"`
	UserID               uint           `gorm:"not null;index" json:"user_id"` // owning user, always the converting user
	User                 User           `gorm:"foreignKey:UserID" json:"-"`
	ClientName           string         `gorm:"not null" json:"client_name"`
	Email                string         `gorm:"not null" json:"email"`
	Phone                string         `gorm:"not null" json:"phone"`
	ProjectName          string         `gorm:"not null" json:"project_name"`
	InstallationAddress  string         `gorm:"not null" json:"installation_address"`
	Status               string         `gorm:"not null;default:'pending'" json:"status"` // pending, in_progress, completed, cancelled
	Total                float64        `gorm:"not null" json:"total"`
	AdjustmentType       *string        `json:"adjustment_type,omitempty"`
	AdjustmentPercentage *float64       `json:"adjustment_percentage,omitempty"`
	AdjustedTotal        *float64       `json:"adjusted_total,omitempty"`
	Receipts             []Receipt      `gorm:"foreignKey:OrderID" json:"receipts"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Receipt is a partial-payment record against an order. The payment
// percentages of all receipts on one order must never sum above 100.
type Receipt struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	OrderID           uint           `gorm:"not null;index" json:"order_id"`
	PaymentPercentage float64        `gorm:"not null" json:"payment_percentage"`
	Amount            float64        `gorm:"not null" json:"amount"`
	Status            string         `gorm:"not null;default:'draft'" json:"status"` // draft, sent, paid
	SentAt            *time.Time     `json:"sent_at,omitempty"`                      // stamped when status becomes "sent"
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}
