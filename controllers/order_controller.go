package controllers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"gorm.io/gorm"
)

// errPaymentLimitExceeded aborts the add-receipt transaction when the
// aggregate payment percentage would pass 100.
var errPaymentLimitExceeded = errors.New("total payment percentage cannot exceed 100%")

// CreateOrderRequest represents the request body for creating an order
// directly from an existing quote
type CreateOrderRequest struct {
	QuoteID              uint     `json:"quote_id" binding:"required"`
	ClientName           string   `json:"client_name" binding:"required"`
	Email                string   `json:"email" binding:"required,email"`
	Phone                string   `json:"phone" binding:"required"`
	ProjectName          string   `json:"project_name" binding:"required"`
	InstallationAddress  string   `json:"installation_address" binding:"required"`
	Status               string   `json:"status" binding:"required"`
	Total                float64  `json:"total" binding:"required"`
	AdjustmentType       *string  `json:"adjustment_type" binding:"omitempty,oneof=discount surcharge"`
	AdjustmentPercentage *float64 `json:"adjustment_percentage"`
	AdjustedTotal        *float64 `json:"adjusted_total"`
}

// CreateReceiptRequest represents the request body for adding a receipt
type CreateReceiptRequest struct {
	PaymentPercentage float64 `json:"payment_percentage" binding:"required,gt=0"`
	Amount            float64 `json:"amount" binding:"required,gt=0"`
}

// UpdateReceiptRequest represents the request body for a receipt status change
type UpdateReceiptRequest struct {
	Status string `json:"status" binding:"required,oneof=draft sent paid"`
}

// findOwnedOrder loads an order and enforces existence-then-ownership, the
// same contract as quotes. Writes the error response and returns false on
// either failure.
func findOwnedOrder(c *gin.Context, db *gorm.DB, orderID string, user models.User, preload bool) (models.Order, bool) {
	var order models.Order
	query := db
	if preload {
		query = query.Preload("Receipts").Preload("Quote.Spaces.Items")
	}
	if err := query.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
			return models.Order{}, false
		}
		respondDBError(c, err)
		return models.Order{}, false
	}

	if order.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have access to this order",
			},
		})
		return models.Order{}, false
	}

	return order, true
}

// ListOrders handles GET /api/v1/orders - lists the requester's orders with
// receipts and the originating quote tree
func ListOrders(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var orders []models.Order
	if err := db.Where("user_id = ?", user.ID).
		Preload("Receipts").
		Preload("Quote.Spaces.Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	order, ok := findOwnedOrder(c, db, c.Param("id"), user, true)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CreateOrder handles POST /api/v1/orders - creates an order referencing a
// quote the requester owns
func CreateOrder(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var quote models.Quote
	if err := db.First(&quote, req.QuoteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUOTE_NOT_FOUND",
				"message": "Quote not found",
			},
		})
		return
	}

	if quote.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have access to this quote",
			},
		})
		return
	}

	order := models.Order{
		QuoteID:              quote.ID,
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

// AddReceipt handles POST /api/v1/orders/:id/receipts - records a partial
// payment, rejecting any receipt that would push the order past 100%
func AddReceipt(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	var req CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	order, ok := findOwnedOrder(c, db, c.Param("id"), user, false)
	if !ok {
		return
	}

	// The sum check and the insert must not interleave with another writer on
	// the same order. Read committed lets two racing adds each pass the check
	// on a stale sum, so the transaction runs serializable; Postgres aborts
	// one of the pair instead of overshooting, and sqlite serializes writers
	// regardless.
	var receipt models.Receipt
	err := db.Transaction(func(tx *gorm.DB) error {
		var total float64
		if err := tx.Model(&models.Receipt{}).
			Where("order_id = ?", order.ID).
			Select("COALESCE(SUM(payment_percentage), 0)").
			Scan(&total).Error; err != nil {
			return err
		}
		if total+req.PaymentPercentage > 100 {
			return errPaymentLimitExceeded
		}

		receipt = models.Receipt{
			OrderID:           order.ID,
			PaymentPercentage: req.PaymentPercentage,
			Amount:            req.Amount,
			Status:            models.ReceiptStatusDraft,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		// Re-check the aggregate after the insert so a serialization failure
		// surfaces inside the transaction rather than at commit.
		if err := tx.Model(&models.Receipt{}).
			Where("order_id = ?", order.ID).
			Select("COALESCE(SUM(payment_percentage), 0)").
			Scan(&total).Error; err != nil {
			return err
		}
		if total > 100 {
			return errPaymentLimitExceeded
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		if errors.Is(err, errPaymentLimitExceeded) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PAYMENT_LIMIT_EXCEEDED",
					"message": "Total payment percentage cannot exceed 100%",
				},
			})
			return
		}
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    receipt,
	})
}

// UpdateReceipt handles PUT /api/v1/orders/:id/receipts/:receiptId - changes
// a receipt's status, stamping sent_at when it becomes "sent"
func UpdateReceipt(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	var req UpdateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	order, ok := findOwnedOrder(c, db, c.Param("id"), user, false)
	if !ok {
		return
	}

	// The receipt is addressed through its parent order; belonging to that
	// order is the only ownership it carries.
	var receipt models.Receipt
	if err := db.Where("order_id = ?", order.ID).First(&receipt, "id = ?", c.Param("receiptId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RECEIPT_NOT_FOUND",
				"message": "Receipt not found",
			},
		})
		return
	}

	var sentAt *time.Time
	if req.Status == models.ReceiptStatusSent {
		now := time.Now()
		sentAt = &now
	}

	updates := map[string]interface{}{
		"status":  req.Status,
		"sent_at": sentAt,
	}
	if err := db.Model(&receipt).Updates(updates).Error; err != nil {
		respondDBError(c, err)
		return
	}

	receipt.Status = req.Status
	receipt.SentAt = sentAt

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    receipt,
	})
}

// DeleteReceipt handles DELETE /api/v1/orders/:id/receipts/:receiptId - only
// draft receipts may be deleted
func DeleteReceipt(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	order, ok := findOwnedOrder(c, db, c.Param("id"), user, false)
	if !ok {
		return
	}

	var receipt models.Receipt
	if err := db.Where("order_id = ?", order.ID).First(&receipt, "id = ?", c.Param("receiptId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RECEIPT_NOT_FOUND",
				"message": "Receipt not found",
			},
		})
		return
	}

	if receipt.Status != models.ReceiptStatusDraft {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RECEIPT_NOT_DRAFT",
				"message": "Only draft receipts can be deleted",
			},
		})
		return
	}

	if err := db.Delete(&receipt).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
