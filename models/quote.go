package models

import (
	"time"

	"gorm.io/gorm"
)

// Quote statuses
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusPending  = "pending"
	QuoteStatusApproved = "approved"
	QuoteStatusRejected = "rejected"
)

// Adjustment types applied to a quote total
const (
	AdjustmentDiscount  = "discount"
	AdjustmentSurcharge = "surcharge"
)

// Quote represents a customer proposal composed of spaces and cabinet items.
// Only approved quotes can be converted into orders.
type Quote struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"not null;index" json:"user_id"` // owning user, foreign key to users table
	User                 User           `gorm:"foreignKey:UserID" json:"-"`
	ClientName           string         `gorm:"not null" json:"client_name"`
	Email                string         `gorm:"not null" json:"email"`
	Phone                string         `gorm:"not null" json:"phone"`
	ProjectName          string         `gorm:"not null" json:"project_name"`
	InstallationAddress  string         `gorm:"not null" json:"installation_address"`
	Status               string         `gorm:"not null;default:'draft'" json:"status"` // draft, pending, approved, rejected
	Total                float64        `gorm:"not null" json:"total"`
	AdjustmentType       *string        `json:"adjustment_type,omitempty"`       // nullable, "discount" or "surcharge"
	AdjustmentPercentage *float64       `json:"adjustment_percentage,omitempty"` // nullable, pairs with AdjustmentType
	AdjustedTotal        *float64       `json:"adjusted_total,omitempty"`
	AttachmentS3Key      *string        `json:"attachment_s3_key,omitempty"`           // nullable, S3 key for uploaded site photo
	AttachmentURL        *string        `gorm:"-" json:"attachment_url,omitempty"`     // computed field, presigned URL
	Spaces               []Space        `gorm:"foreignKey:QuoteID" json:"spaces"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Quote model
func (Quote) TableName() string {
	return "quotes"
}

// Space is a named grouping of cabinet items within a quote, e.g. a room.
// Spaces exist only as children of exactly one quote.
type Space struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	QuoteID   uint           `gorm:"not null;index" json:"quote_id"`
	Name      string         `gorm:"not null" json:"name"`
	Items     []CabinetItem  `gorm:"foreignKey:SpaceID" json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Space model
func (Space) TableName() string {
	return "spaces"
}

// CabinetItem is a single priced, dimensioned line item owned by one space.
type CabinetItem struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SpaceID   uint           `gorm:"not null;index" json:"space_id"`
	ProductID *uint          `gorm:"index" json:"product_id,omitempty"` // nullable, catalog reference
	Material  *string        `json:"material,omitempty"`
	Width     float64        `gorm:"not null" json:"width"`
	Height    float64        `gorm:"not null" json:"height"`
	Depth     float64        `gorm:"not null" json:"depth"`
	Price     float64        `gorm:"not null" json:"price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the CabinetItem model
func (CabinetItem) TableName() string {
	return "cabinet_items"
}
