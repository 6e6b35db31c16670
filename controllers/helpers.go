package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/middleware"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"github.com/iwenyou/cabinet-quotes-api/utils"
)

// getCurrentUser resolves the authenticated requester into a local user row.
// It writes the error response and returns false when resolution fails.
func getCurrentUser(c *gin.Context) (models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return models.User{}, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User profile not found. Please create a profile first.",
			},
		})
		return models.User{}, false
	}

	return user, true
}

// respondValidationError writes the standard 400 envelope for a request body
// that failed binding, including the per-field violation detail.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondDBError classifies a data-access failure, logs it with request
// context, and writes the standard error envelope. Unclassified failures
// surface only a generic message in production.
func respondDBError(c *gin.Context, err error) {
	dbErr := utils.TranslateDBError(err)
	log.Printf("Database error: %v (code=%s method=%s path=%s)",
		err, dbErr.Code, c.Request.Method, c.Request.URL.Path)

	message := dbErr.Message
	if dbErr.Code == utils.CodeUnknown {
		if cfg := config.GetConfig(); cfg == nil || !cfg.IsProduction() {
			message = err.Error()
		} else {
			message = "An unexpected error occurred"
		}
	}

	c.JSON(dbErr.StatusCode(), gin.H{
		"success": false,
		"error": gin.H{
			"code":    dbErr.Code,
			"message": message,
		},
	})
}
