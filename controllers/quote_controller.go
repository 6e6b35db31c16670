package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"github.com/iwenyou/cabinet-quotes-api/services"
	"gorm.io/gorm"
)

// CabinetItemRequest represents one line item within a space payload
type CabinetItemRequest struct {
	ProductID *uint    `json:"product_id"`
	Material  *string  `json:"material"`
	Width     float64  `json:"width" binding:"required"`
	Height    float64  `json:"height" binding:"required"`
	Depth     float64  `json:"depth" binding:"required"`
	Price     float64  `json:"price"`
}

// SpaceRequest represents one space within a quote payload
type SpaceRequest struct {
	Name  string               `json:"name" binding:"required"`
	Items []CabinetItemRequest `json:"items" binding:"dive"`
}

// QuoteRequest represents the request body for creating or replacing a quote
type QuoteRequest struct {
	ClientName           string         `json:"client_name" binding:"required"`
	Email                string         `json:"email" binding:"required,email"`
	Phone                string         `json:"phone" binding:"required"`
	ProjectName          string         `json:"project_name" binding:"required"`
	InstallationAddress  string         `json:"installation_address" binding:"required"`
	Status               string         `json:"status" binding:"required,oneof=draft pending approved rejected"`
	Total                float64        `json:"total" binding:"required"`
	AdjustmentType       *string        `json:"adjustment_type" binding:"omitempty,oneof=discount surcharge"`
	AdjustmentPercentage *float64       `json:"adjustment_percentage"`
	AdjustedTotal        *float64       `json:"adjusted_total"`
	Spaces               []SpaceRequest `json:"spaces" binding:"dive"`
}

// buildSpaces converts the space payloads into model rows for the given quote
func buildSpaces(quoteID uint, reqs []SpaceRequest) []models.Space {
	spaces := make([]models.Space, 0, len(reqs))
	for _, sr := range reqs {
		space := models.Space{QuoteID: quoteID, Name: sr.Name}
		for _, ir := range sr.Items {
			space.Items = append(space.Items, models.CabinetItem{
				ProductID: ir.ProductID,
				Material:  ir.Material,
				Width:     ir.Width,
				Height:    ir.Height,
				Depth:     ir.Depth,
				Price:     ir.Price,
			})
		}
		spaces = append(spaces, space)
	}
	return spaces
}

// findOwnedQuote loads a quote and enforces the existence-then-ownership
// contract: a missing quote is 404, someone else's quote is 403. It writes
// the error response and returns false on either failure.
func findOwnedQuote(c *gin.Context, db *gorm.DB, quoteID string, user models.User, preload bool) (models.Quote, bool) {
	var quote models.Quote
	query := db
	if preload {
		query = query.Preload("Spaces.Items")
	}
	if err := query.First(&quote, "id = ?", quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "QUOTE_NOT_FOUND",
					"message": "Quote not found",
				},
			})
			return models.Quote{}, false
		}
		respondDBError(c, err)
		return models.Quote{}, false
	}

	if quote.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have access to this quote",
			},
		})
		return models.Quote{}, false
	}

	return quote, true
}

// attachPresignedURL fills in the computed attachment URL when the quote has
// an uploaded attachment and the attachment service is configured.
func attachPresignedURL(quote *models.Quote) {
	if quote.AttachmentS3Key == nil {
		return
	}
	svc := services.GetAttachmentService()
	if svc == nil {
		return
	}
	if url, err := svc.GetAttachmentURL(*quote.AttachmentS3Key); err == nil && url != "" {
		quote.AttachmentURL = &url
	}
}

// ListQuotes handles GET /api/v1/quotes - lists the requester's quotes
func ListQuotes(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var quotes []models.Quote
	if err := db.Where("user_id = ?", user.ID).
		Preload("Spaces.Items").
		Order("created_at DESC").
		Find(&quotes).Error; err != nil {
		respondDBError(c, err)
		return
	}

	for i := range quotes {
		attachPresignedURL(&quotes[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quotes,
	})
}

// GetQuote handles GET /api/v1/quotes/:id
func GetQuote(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	quote, ok := findOwnedQuote(c, db, c.Param("id"), user, true)
	if !ok {
		return
	}

	attachPresignedURL(&quote)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// CreateQuote handles POST /api/v1/quotes - creates a quote with its full
// space/item tree in a single creation graph
func CreateQuote(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	quote := models.Quote{
		UserID:               user.ID,
		ClientName:           req.ClientName,
		Email:                req.Email,
		Phone:                req.Phone,
		ProjectName:          req.ProjectName,
		InstallationAddress:  req.InstallationAddress,
		Status:               req.Status,
		Total:                req.Total,
		AdjustmentType:       req.AdjustmentType,
		AdjustmentPercentage: req.AdjustmentPercentage,
		AdjustedTotal:        req.AdjustedTotal,
		Spaces:               buildSpaces(0, req.Spaces),
	}

	db := config.GetDB()
	if err := db.Create(&quote).Error; err != nil {
		respondDBError(c, err)
		return
	}

	// Reload the full tree so the response carries generated child IDs
	if err := db.Preload("Spaces.Items").First(&quote, quote.ID).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    quote,
	})
}

// UpdateQuote handles PUT /api/v1/quotes/:id - replaces the quote fields and
// its entire space/item tree with the payload (full-replace, not a merge)
func UpdateQuote(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	quote, ok := findOwnedQuote(c, db, c.Param("id"), user, false)
	if !ok {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Children go first: items depend on spaces, spaces on the quote
		spaceIDs := tx.Model(&models.Space{}).Select("id").Where("quote_id = ?", quote.ID)
		if err := tx.Where("space_id IN (?)", spaceIDs).Delete(&models.CabinetItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.Space{}).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"client_name":           req.ClientName,
			"email":                 req.Email,
			"phone":                 req.Phone,
			"project_name":          req.ProjectName,
			"installation_address":  req.InstallationAddress,
			"status":                req.Status,
			"total":                 req.Total,
			"adjustment_type":       req.AdjustmentType,
			"adjustment_percentage": req.AdjustmentPercentage,
			"adjusted_total":        req.AdjustedTotal,
		}
		if err := tx.Model(&models.Quote{}).Where("id = ?", quote.ID).Updates(updates).Error; err != nil {
			return err
		}

		spaces := buildSpaces(quote.ID, req.Spaces)
		if len(spaces) > 0 {
			if err := tx.Create(&spaces).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondDBError(c, err)
		return
	}

	if err := db.Preload("Spaces.Items").First(&quote, quote.ID).Error; err != nil {
		respondDBError(c, err)
		return
	}

	attachPresignedURL(&quote)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// DeleteQuote handles DELETE /api/v1/quotes/:id - removes the quote and its
// space/item tree in dependency order
func DeleteQuote(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	quote, ok := findOwnedQuote(c, db, c.Param("id"), user, false)
	if !ok {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		spaceIDs := tx.Model(&models.Space{}).Select("id").Where("quote_id = ?", quote.ID)
		if err := tx.Where("space_id IN (?)", spaceIDs).Delete(&models.CabinetItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.Space{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quote{}, quote.ID).Error
	})
	if err != nil {
		respondDBError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ConvertQuote handles POST /api/v1/quotes/:id/convert - creates an order
// from an approved quote, snapshotting its client and financial fields
func ConvertQuote(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	quote, ok := findOwnedQuote(c, db, c.Param("id"), user, true)
	if !ok {
		return
	}

	if quote.Status != models.QuoteStatusApproved {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUOTE_NOT_APPROVED",
				"message": "Only approved quotes can be converted to orders",
			},
		})
		return
	}

	// Snapshot: the order copies the quote's fields at this instant, so
	// later edits to the quote never change the order.
	order := models.Order{
		QuoteID:              quote.ID,
		UserID:               user.ID,
		ClientName:           quote.ClientName,
		Email:                quote.Email,
		Phone:                quote.Phone,
		ProjectName:          quote.ProjectName,
		InstallationAddress:  quote.InstallationAddress,
		Status:               models.OrderStatusPending,
		Total:                quote.Total,
		AdjustmentType:       quote.AdjustmentType,
		AdjustmentPercentage: quote.AdjustmentPercentage,
		AdjustedTotal:        quote.AdjustedTotal,
	}

	if err := db.Create(&order).Error; err != nil {
		respondDBError(c, err)
		return
	}

	if err := db.Preload("Receipts").Preload("Quote.Spaces.Items").First(&order, order.ID).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}
