package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PresetValuesID is the fixed primary key of the singleton preset values row.
// The row is upserted by this key rather than created and updated separately.
const PresetValuesID uint = 1

// PresetValues holds the shop-wide numeric business parameters. Exactly one
// row ever exists.
type PresetValues struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DefaultHeight   float64   `gorm:"not null" json:"default_height"`
	DefaultWidth    float64   `gorm:"not null" json:"default_width"`
	DefaultDepth    float64   `gorm:"not null" json:"default_depth"`
	LaborRate       float64   `gorm:"not null" json:"labor_rate"`
	MaterialMarkup  float64   `gorm:"not null" json:"material_markup"`
	TaxRate         float64   `gorm:"not null" json:"tax_rate"`
	DeliveryFee     float64   `gorm:"not null" json:"delivery_fee"`
	InstallationFee float64   `gorm:"not null" json:"installation_fee"`
	StorageFee      float64   `gorm:"not null" json:"storage_fee"`
	MinimumOrder    float64   `gorm:"not null" json:"minimum_order"`
	RushOrderFee    float64   `gorm:"not null" json:"rush_order_fee"`
	ShippingRate    float64   `gorm:"not null" json:"shipping_rate"`
	ImportTaxRate   float64   `gorm:"not null" json:"import_tax_rate"`
	ExchangeRate    float64   `gorm:"not null" json:"exchange_rate"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the PresetValues model
func (PresetValues) TableName() string {
	return "preset_values"
}

// PricingRule is a named computation rule made of ordered formula steps.
type PricingRule struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Result    string         `gorm:"not null" json:"result"`
	Formula   []FormulaStep  `gorm:"foreignKey:PricingRuleID" json:"formula"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the PricingRule model
func (PricingRule) TableName() string {
	return "pricing_rules"
}

// FormulaStep is one step of a pricing rule formula. StepOrder fixes the
// evaluation order within the rule.
type FormulaStep struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PricingRuleID    uint      `gorm:"not null;index" json:"pricing_rule_id"`
	LeftOperand      string    `gorm:"not null" json:"left_operand"`
	Operator         string    `gorm:"not null" json:"operator"`
	RightOperand     string    `gorm:"not null" json:"right_operand"`
	RightOperandType string    `gorm:"not null" json:"right_operand_type"` // "field" or "constant"
	StepOrder        int       `gorm:"not null" json:"order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for the FormulaStep model
func (FormulaStep) TableName() string {
	return "formula_steps"
}

// Template stores an open-ended settings document keyed by a unique type
// string, e.g. "quote" or "invoice". Rows are upserted by type.
type Template struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Type      string            `gorm:"uniqueIndex;not null" json:"type"`
	Settings  datatypes.JSONMap `gorm:"not null" json:"settings"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the Template model
func (Template) TableName() string {
	return "templates"
}
