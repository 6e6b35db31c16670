package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PresetValuesRequest represents the request body for the preset values
// upsert. Fee and rate fields may legitimately be zero, so none of the
// numeric fields carry a required tag.
type PresetValuesRequest struct {
	DefaultHeight   float64 `json:"default_height"`
	DefaultWidth    float64 `json:"default_width"`
	DefaultDepth    float64 `json:"default_depth"`
	LaborRate       float64 `json:"labor_rate"`
	MaterialMarkup  float64 `json:"material_markup"`
	TaxRate         float64 `json:"tax_rate"`
	DeliveryFee     float64 `json:"delivery_fee"`
	InstallationFee float64 `json:"installation_fee"`
	StorageFee      float64 `json:"storage_fee"`
	MinimumOrder    float64 `json:"minimum_order"`
	RushOrderFee    float64 `json:"rush_order_fee"`
	ShippingRate    float64 `json:"shipping_rate"`
	ImportTaxRate   float64 `json:"import_tax_rate"`
	ExchangeRate    float64 `json:"exchange_rate"`
}

// FormulaStepRequest represents one formula step within a pricing rule payload
type FormulaStepRequest struct {
	LeftOperand      string `json:"left_operand" binding:"required"`
	Operator         string `json:"operator" binding:"required"`
	RightOperand     string `json:"right_operand" binding:"required"`
	RightOperandType string `json:"right_operand_type" binding:"required"`
	Order            int    `json:"order"`
}

// PricingRuleRequest represents the request body for creating a pricing rule
type PricingRuleRequest struct {
	Name    string               `json:"name" binding:"required"`
	Formula []FormulaStepRequest `json:"formula" binding:"required,dive"`
	Result  string               `json:"result" binding:"required"`
}

// TemplateRequest represents the request body for a template upsert
type TemplateRequest struct {
	Settings datatypes.JSONMap `json:"settings" binding:"required"`
}

// GetPresetValues handles GET /api/v1/settings/preset-values - returns the
// singleton row, or null data when it has never been written
func GetPresetValues(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var preset models.PresetValues
	err := db.First(&preset, models.PresetValuesID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    nil,
			})
			return
		}
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    preset,
	})
}

// UpsertPresetValues handles PUT /api/v1/settings/preset-values - writes the
// singleton row addressed by its fixed key
func UpsertPresetValues(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req PresetValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	preset := models.PresetValues{
		ID:              models.PresetValuesID,
		DefaultHeight:   req.DefaultHeight,
		DefaultWidth:    req.DefaultWidth,
		DefaultDepth:    req.DefaultDepth,
		LaborRate:       req.LaborRate,
		MaterialMarkup:  req.MaterialMarkup,
		TaxRate:         req.TaxRate,
		DeliveryFee:     req.DeliveryFee,
		InstallationFee: req.InstallationFee,
		StorageFee:      req.StorageFee,
		MinimumOrder:    req.MinimumOrder,
		RushOrderFee:    req.RushOrderFee,
		ShippingRate:    req.ShippingRate,
		ImportTaxRate:   req.ImportTaxRate,
		ExchangeRate:    req.ExchangeRate,
	}

	db := config.GetDB()
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&preset).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    preset,
	})
}

// ListPricingRules handles GET /api/v1/settings/pricing-rules - rules with
// their formula steps in evaluation order
func ListPricingRules(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var rules []models.PricingRule
	if err := db.Preload("Formula", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order ASC")
	}).Find(&rules).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rules,
	})
}

// CreatePricingRule handles POST /api/v1/settings/pricing-rules - creates a
// rule and its formula steps as one graph
func CreatePricingRule(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	rule := models.PricingRule{
		Name:   req.Name,
		Result: req.Result,
	}
	for _, step := range req.Formula {
		rule.Formula = append(rule.Formula, models.FormulaStep{
			LeftOperand:      step.LeftOperand,
			Operator:         step.Operator,
			RightOperand:     step.RightOperand,
			RightOperandType: step.RightOperandType,
			StepOrder:        step.Order,
		})
	}

	db := config.GetDB()
	if err := db.Create(&rule).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    rule,
	})
}

// GetTemplate handles GET /api/v1/settings/templates/:type - returns the
// template keyed by type, or null data when none exists
func GetTemplate(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var template models.Template
	err := db.Where("type = ?", c.Param("type")).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    nil,
			})
			return
		}
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    template,
	})
}

// UpsertTemplate handles PUT /api/v1/settings/templates/:type - writes the
// template addressed by its natural key
func UpsertTemplate(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	template := models.Template{
		Type:     c.Param("type"),
		Settings: req.Settings,
	}

	db := config.GetDB()
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
	}).Create(&template).Error; err != nil {
		respondDBError(c, err)
		return
	}

	// The insert path leaves the struct without the existing row's ID on
	// conflict, so reload by the natural key.
	if err := db.Where("type = ?", template.Type).First(&template).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    template,
	})
}
