package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// quotePayload builds a valid quote request body for tests
func quotePayload(status string) map[string]interface{} {
	return map[string]interface{}{
		"client_name":          "Jane Client",
		"email":                "jane@example.com",
		"phone":                "555-0100",
		"project_name":         "Kitchen Remodel",
		"installation_address": "12 Main St",
		"status":               status,
		"total":                4200.50,
		"spaces": []map[string]interface{}{
			{
				"name": "Kitchen",
				"items": []map[string]interface{}{
					{"width": 60, "height": 90, "depth": 35, "price": 1200.25, "material": "oak"},
					{"width": 80, "height": 90, "depth": 35, "price": 3000.25},
				},
			},
		},
	}
}

// setupQuoteRouter registers all quote routes behind a mock authenticated user
func setupQuoteRouter(auth0ID string) *gin.Engine {
	router := setupTestRouter()
	authed := router.Group("", mockAuthMiddleware(auth0ID, "customer", "mock-token"))
	authed.GET("/quotes", ListQuotes)
	authed.GET("/quotes/:id", GetQuote)
	authed.POST("/quotes", CreateQuote)
	authed.PUT("/quotes/:id", UpdateQuote)
	authed.DELETE("/quotes/:id", DeleteQuote)
	authed.POST("/quotes/:id/convert", ConvertQuote)
	return router
}

// createQuoteForUser persists a quote tree directly for read/update scenarios
func createQuoteForUser(t *testing.T, db *gorm.DB, user models.User, status string) models.Quote {
	t.Helper()
	quote := models.Quote{
		UserID:              user.ID,
		ClientName:          "Jane Client",
		Email:               "jane@example.com",
		Phone:               "555-0100",
		ProjectName:         "Kitchen Remodel",
		InstallationAddress: "12 Main St",
		Status:              status,
		Total:               4200.50,
		Spaces: []models.Space{
			{
				Name: "Kitchen",
				Items: []models.CabinetItem{
					{Width: 60, Height: 90, Depth: 35, Price: 1200.25},
					{Width: 80, Height: 90, Depth: 35, Price: 3000.25},
				},
			},
		},
	}
	if err := db.Create(&quote).Error; err != nil {
		t.Fatalf("Failed to create test quote: %v", err)
	}
	return quote
}

func TestCreateQuote(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|quoter", "quoter@example.com")

	tests := []struct {
		name           string
		mutate         func(payload map[string]interface{})
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Successfully create quote with space/item tree",
			mutate:         func(p map[string]interface{}) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Fail with invalid status",
			mutate: func(p map[string]interface{}) {
				p["status"] = "archived"
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with invalid adjustment type",
			mutate: func(p map[string]interface{}) {
				p["adjustment_type"] = "rebate"
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with malformed email",
			mutate: func(p map[string]interface{}) {
				p["email"] = "not-an-email"
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with missing client name",
			mutate: func(p map[string]interface{}) {
				delete(p, "client_name")
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupQuoteRouter(user.Auth0ID)

			payload := quotePayload("draft")
			tt.mutate(payload)

			w := doJSONRequest(router, http.MethodPost, "/quotes", payload)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assertErrorCode(t, w, tt.expectedError)
				return
			}

			response := parseResponse(t, w)
			data := response["data"].(map[string]interface{})
			assert.Equal(t, "draft", data["status"])
			assert.Equal(t, float64(user.ID), data["user_id"])

			spaces := data["spaces"].([]interface{})
			assert.Len(t, spaces, 1)
			items := spaces[0].(map[string]interface{})["items"].([]interface{})
			assert.Len(t, items, 2)
		})
	}
}

func TestCreateQuote_WithAdjustment(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|adjuster", "adjuster@example.com")
	router := setupQuoteRouter(user.Auth0ID)

	payload := quotePayload("pending")
	payload["adjustment_type"] = "discount"
	payload["adjustment_percentage"] = 10.0
	payload["adjusted_total"] = 3780.45

	w := doJSONRequest(router, http.MethodPost, "/quotes", payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "discount", data["adjustment_type"])
	assert.Equal(t, 10.0, data["adjustment_percentage"])
	assert.Equal(t, 3780.45, data["adjusted_total"])
}

func TestListQuotes_OnlyMineNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	mine := createTestUser(t, db, "auth0|mine", "mine@example.com")
	other := createTestUser(t, db, "auth0|other", "other@example.com")

	first := createQuoteForUser(t, db, mine, "draft")
	second := createQuoteForUser(t, db, mine, "pending")
	createQuoteForUser(t, db, other, "draft")

	// Force distinct creation times so the ordering is deterministic
	db.Model(&models.Quote{}).Where("id = ?", first.ID).
		Update("created_at", gorm.Expr("datetime('now', '-1 hour')"))

	router := setupQuoteRouter(mine.Auth0ID)
	w := doJSONRequest(router, http.MethodGet, "/quotes", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)

	newest := data[0].(map[string]interface{})
	assert.Equal(t, float64(second.ID), newest["id"])

	// Tree is included
	spaces := newest["spaces"].([]interface{})
	assert.Len(t, spaces, 1)
}

func TestGetQuote_ExistenceBeforeOwnership(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	owner := createTestUser(t, db, "auth0|owner", "owner@example.com")
	intruder := createTestUser(t, db, "auth0|intruder", "intruder@example.com")
	quote := createQuoteForUser(t, db, owner, "draft")

	t.Run("Owner gets full tree", func(t *testing.T) {
		router := setupQuoteRouter(owner.Auth0ID)
		w := doJSONRequest(router, http.MethodGet, fmt.Sprintf("/quotes/%d", quote.ID), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(quote.ID), data["id"])
		assert.Len(t, data["spaces"].([]interface{}), 1)
	})

	t.Run("Missing quote is 404", func(t *testing.T) {
		router := setupQuoteRouter(owner.Auth0ID)
		w := doJSONRequest(router, http.MethodGet, "/quotes/99999", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assertErrorCode(t, w, "QUOTE_NOT_FOUND")
	})

	t.Run("Someone else's quote is 403 with no data", func(t *testing.T) {
		router := setupQuoteRouter(intruder.Auth0ID)
		w := doJSONRequest(router, http.MethodGet, fmt.Sprintf("/quotes/%d", quote.ID), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assertErrorCode(t, w, "FORBIDDEN")
		response := parseResponse(t, w)
		assert.Nil(t, response["data"])
	})
}

func TestGetQuote_StorageFailureIsNot404(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|dbfail", "dbfail@example.com")
	quote := createQuoteForUser(t, db, user, "draft")
	router := setupQuoteRouter(user.Auth0ID)

	assert.NoError(t, db.Migrator().DropTable(&models.Quote{}))

	w := doJSONRequest(router, http.MethodGet, fmt.Sprintf("/quotes/%d", quote.ID), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assertErrorCode(t, w, "UNKNOWN")
}

func TestUpdateQuote_FullReplace(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|replacer", "replacer@example.com")
	quote := createQuoteForUser(t, db, user, "draft")

	payload := map[string]interface{}{
		"client_name":          "Jane Client",
		"email":                "jane@example.com",
		"phone":                "555-0100",
		"project_name":         "Kitchen Remodel v2",
		"installation_address": "12 Main St",
		"status":               "pending",
		"total":                5100.00,
		"spaces": []map[string]interface{}{
			{
				"name": "Pantry",
				"items": []map[string]interface{}{
					{"width": 40, "height": 200, "depth": 60, "price": 5100.00, "material": "walnut"},
				},
			},
		},
	}

	router := setupQuoteRouter(user.Auth0ID)
	w := doJSONRequest(router, http.MethodPut, fmt.Sprintf("/quotes/%d", quote.ID), payload)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "Kitchen Remodel v2", data["project_name"])

	// Exactly the payload's tree remains, nothing from before
	spaces := data["spaces"].([]interface{})
	assert.Len(t, spaces, 1)
	space := spaces[0].(map[string]interface{})
	assert.Equal(t, "Pantry", space["name"])
	assert.Len(t, space["items"].([]interface{}), 1)

	var spaceCount, itemCount int64
	db.Model(&models.Space{}).Where("quote_id = ?", quote.ID).Count(&spaceCount)
	db.Model(&models.CabinetItem{}).
		Where("space_id IN (?)", db.Model(&models.Space{}).Select("id").Where("quote_id = ?", quote.ID)).
		Count(&itemCount)
	assert.Equal(t, int64(1), spaceCount)
	assert.Equal(t, int64(1), itemCount)
}

func TestUpdateQuote_OtherUserForbidden(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	owner := createTestUser(t, db, "auth0|upowner", "upowner@example.com")
	intruder := createTestUser(t, db, "auth0|upintruder", "upintruder@example.com")
	quote := createQuoteForUser(t, db, owner, "draft")

	router := setupQuoteRouter(intruder.Auth0ID)
	w := doJSONRequest(router, http.MethodPut, fmt.Sprintf("/quotes/%d", quote.ID), quotePayload("draft"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assertErrorCode(t, w, "FORBIDDEN")

	// The tree is untouched
	var spaceCount int64
	db.Model(&models.Space{}).Where("quote_id = ?", quote.ID).Count(&spaceCount)
	assert.Equal(t, int64(1), spaceCount)
}

func TestDeleteQuote_CascadesChildren(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|deleter", "deleter@example.com")
	quote := createQuoteForUser(t, db, user, "draft")

	router := setupQuoteRouter(user.Auth0ID)
	w := doJSONRequest(router, http.MethodDelete, fmt.Sprintf("/quotes/%d", quote.ID), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)

	var quoteCount, spaceCount, itemCount int64
	db.Model(&models.Quote{}).Where("id = ?", quote.ID).Count(&quoteCount)
	db.Model(&models.Space{}).Where("quote_id = ?", quote.ID).Count(&spaceCount)
	db.Model(&models.CabinetItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), quoteCount)
	assert.Equal(t, int64(0), spaceCount)
	assert.Equal(t, int64(0), itemCount)
}

func TestConvertQuote(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|converter", "converter@example.com")

	t.Run("Draft quote cannot be converted and creates no order", func(t *testing.T) {
		quote := createQuoteForUser(t, db, user, "draft")
		router := setupQuoteRouter(user.Auth0ID)

		w := doJSONRequest(router, http.MethodPost, fmt.Sprintf("/quotes/%d/convert", quote.ID), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assertErrorCode(t, w, "QUOTE_NOT_APPROVED")

		var orderCount int64
		db.Model(&models.Order{}).Where("quote_id = ?", quote.ID).Count(&orderCount)
		assert.Equal(t, int64(0), orderCount)
	})

	t.Run("Approved quote converts with snapshot fields", func(t *testing.T) {
		quote := createQuoteForUser(t, db, user, "approved")
		router := setupQuoteRouter(user.Auth0ID)

		w := doJSONRequest(router, http.MethodPost, fmt.Sprintf("/quotes/%d/convert", quote.ID), nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		response := parseResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, quote.Total, data["total"])
		assert.Equal(t, quote.ClientName, data["client_name"])
		assert.Equal(t, float64(quote.ID), data["quote_id"])
		assert.Equal(t, float64(user.ID), data["user_id"])

		// Includes the originating quote tree
		quoteData := data["quote"].(map[string]interface{})
		assert.Len(t, quoteData["spaces"].([]interface{}), 1)

		// The source quote is untouched
		var reloaded models.Quote
		db.First(&reloaded, quote.ID)
		assert.Equal(t, "approved", reloaded.Status)
	})

	t.Run("Later quote edits never alter the order", func(t *testing.T) {
		quote := createQuoteForUser(t, db, user, "approved")
		router := setupQuoteRouter(user.Auth0ID)

		w := doJSONRequest(router, http.MethodPost, fmt.Sprintf("/quotes/%d/convert", quote.ID), nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		orderID := uint(parseResponse(t, w)["data"].(map[string]interface{})["id"].(float64))

		// Mutate the quote after conversion
		payload := quotePayload("approved")
		payload["total"] = 9999.99
		payload["client_name"] = "Renamed Client"
		w = doJSONRequest(router, http.MethodPut, fmt.Sprintf("/quotes/%d", quote.ID), payload)
		assert.Equal(t, http.StatusOK, w.Code)

		var order models.Order
		db.First(&order, orderID)
		assert.Equal(t, quote.Total, order.Total)
		assert.Equal(t, "Jane Client", order.ClientName)
	})

	t.Run("Converting another user's quote is forbidden", func(t *testing.T) {
		stranger := createTestUser(t, db, "auth0|stranger", "stranger@example.com")
		quote := createQuoteForUser(t, db, stranger, "approved")
		router := setupQuoteRouter(user.Auth0ID)

		w := doJSONRequest(router, http.MethodPost, fmt.Sprintf("/quotes/%d/convert", quote.ID), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assertErrorCode(t, w, "FORBIDDEN")
	})
}
