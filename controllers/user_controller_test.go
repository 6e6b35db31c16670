package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/middleware"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"github.com/iwenyou/cabinet-quotes-api/services"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory database with the full schema migrated
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Quote{},
		&models.Space{},
		&models.CabinetItem{},
		&models.Order{},
		&models.Receipt{},
		&models.Category{},
		&models.Product{},
		&models.PresetValues{},
		&models.PricingRule{},
		&models.FormulaStep{},
		&models.Template{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// createTestUser inserts a user row for ownership scenarios
func createTestUser(t *testing.T, db *gorm.DB, auth0ID, email string) models.User {
	t.Helper()
	user := models.User{
		Auth0ID: auth0ID,
		Name:    "Test User",
		Email:   email,
		Role:    "customer",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// setupMockAuth0Server simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		token := authHeader[7:] // Remove "Bearer " prefix

		userInfo, exists := userInfoMap[token]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	}))
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing.
// It sets up the context exactly as the real EnsureValidToken middleware does.
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)

		customClaims := &middleware.CustomClaims{
			Role: role,
		}

		mockClaims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: auth0ID,
			},
			CustomClaims: customClaims,
		}

		c.Set("validated_claims", mockClaims)

		c.Next()
	}
}

// doJSONRequest marshals the body and runs the request through the router
func doJSONRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseResponse unmarshals a recorded response body
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Response should be valid JSON: %v (body=%s)", err, w.Body.String())
	}
	return response
}

// assertErrorCode checks the error envelope for a stable machine code
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, code string) {
	t.Helper()
	response := parseResponse(t, w)
	assert.False(t, response["success"].(bool))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, code, errorData["code"])
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	userInfoMap := map[string]*services.Auth0UserInfo{
		"valid-token": {
			Sub:   "auth0|newuser",
			Email: "newuser@example.com",
			Name:  "New User",
		},
		"no-email-token": {
			Sub:  "auth0|noemail",
			Name: "No Email",
		},
	}
	mockServer := setupMockAuth0Server(userInfoMap)
	defer mockServer.Close()

	cfg := &config.Config{Auth0Domain: mockServer.URL, GoEnv: "test"}
	config.SetConfig(cfg)

	tests := []struct {
		name           string
		auth0ID        string
		accessToken    string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Successfully create user from Auth0 userinfo",
			auth0ID:        "auth0|newuser",
			accessToken:    "valid-token",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Fail when Auth0 returns no email",
			auth0ID:        "auth0|noemail",
			accessToken:    "no-email-token",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "MISSING_EMAIL",
		},
		{
			name:           "Fail with unknown access token",
			auth0ID:        "auth0|unknown",
			accessToken:    "bad-token",
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "AUTH0_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/users",
				mockAuthMiddleware(tt.auth0ID, "customer", tt.accessToken),
				CreateUser,
			)

			w := doJSONRequest(router, http.MethodPost, "/users", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assertErrorCode(t, w, tt.expectedError)
			}
		})
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	createTestUser(t, db, "auth0|dupe", "dupe@example.com")

	userInfoMap := map[string]*services.Auth0UserInfo{
		"dupe-token": {
			Sub:   "auth0|dupe",
			Email: "dupe@example.com",
			Name:  "Dupe User",
		},
	}
	mockServer := setupMockAuth0Server(userInfoMap)
	defer mockServer.Close()
	config.SetConfig(&config.Config{Auth0Domain: mockServer.URL, GoEnv: "test"})

	router := setupTestRouter()
	router.POST("/users", mockAuthMiddleware("auth0|dupe", "customer", "dupe-token"), CreateUser)

	w := doJSONRequest(router, http.MethodPost, "/users", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assertErrorCode(t, w, "USER_EXISTS")
}

func TestGetMyProfile(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|me", "me@example.com")

	router := setupTestRouter()
	router.GET("/users/me", mockAuthMiddleware(user.Auth0ID, "customer", "token"), GetMyProfile)

	w := doJSONRequest(router, http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, user.Email, data["email"])
	assert.Equal(t, "customer", data["role"])
}

func TestGetMyProfile_NotFound(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	router := setupTestRouter()
	router.GET("/users/me", mockAuthMiddleware("auth0|ghost", "customer", "token"), GetMyProfile)

	w := doJSONRequest(router, http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assertErrorCode(t, w, "USER_NOT_FOUND")
}

func TestUpdateMyProfile(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	user := createTestUser(t, db, "auth0|update", "update@example.com")

	router := setupTestRouter()
	router.PUT("/users/me", mockAuthMiddleware(user.Auth0ID, "customer", "token"), UpdateMyProfile)

	w := doJSONRequest(router, http.MethodPut, "/users/me", map[string]interface{}{
		"name": "Renamed User",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Renamed User", data["name"])
	assert.Equal(t, "update@example.com", data["email"])
}
