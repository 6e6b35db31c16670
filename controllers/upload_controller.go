package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"github.com/iwenyou/cabinet-quotes-api/services"
	"github.com/iwenyou/cabinet-quotes-api/utils"
)

// UploadQuoteAttachment handles POST /api/v1/quotes/:id/attachment - attaches
// a site photo or design render (PNG, max 10MB) to a quote
func UploadQuoteAttachment(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	quote, ok := findOwnedQuote(c, db, c.Param("id"), user, false)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "An image file is required in the 'image' form field",
			},
		})
		return
	}

	svc := services.GetAttachmentService()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Attachment storage is not configured",
			},
		})
		return
	}

	key, err := svc.UploadAttachment(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store the attachment",
			},
		})
		return
	}

	// Replacing an attachment orphans the old object; best-effort cleanup
	if quote.AttachmentS3Key != nil && *quote.AttachmentS3Key != key {
		_ = svc.DeleteAttachment(*quote.AttachmentS3Key)
	}

	if err := db.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("attachment_s3_key", key).Error; err != nil {
		respondDBError(c, err)
		return
	}

	quote.AttachmentS3Key = &key
	if url, urlErr := svc.GetAttachmentURL(key); urlErr == nil && url != "" {
		quote.AttachmentURL = &url
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    quote,
	})
}
