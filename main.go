package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/controllers"
	"github.com/iwenyou/cabinet-quotes-api/middleware"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"github.com/iwenyou/cabinet-quotes-api/services"
)

func main() {
	log.Println("Starting Cabinet Quotes API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetConfig(cfg)

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
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
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Attachment storage is optional; quotes work without it
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitAttachmentService(s3Service)
		log.Printf("Quote attachments enabled (bucket %s)", cfg.AWSS3Bucket)
	} else {
		log.Println("AWS_S3_BUCKET not set, quote attachments disabled")
	}

	router := setupRouter(cfg)

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires the middleware stack and all API routes
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint backing the table-viewer page
		v1.GET("/database/status", databaseStatus)
	}

	auth := v1.Group("")
	auth.Use(middleware.EnsureValidToken(cfg))
	{
		// User profiles
		auth.POST("/users", controllers.CreateUser)
		auth.GET("/users/me", controllers.GetMyProfile)
		auth.PUT("/users/me", controllers.UpdateMyProfile)

		// Quotes
		auth.GET("/quotes", controllers.ListQuotes)
		auth.GET("/quotes/:id", controllers.GetQuote)
		auth.POST("/quotes", controllers.CreateQuote)
		auth.PUT("/quotes/:id", controllers.UpdateQuote)
		auth.DELETE("/quotes/:id", controllers.DeleteQuote)
		auth.POST("/quotes/:id/convert", controllers.ConvertQuote)
		auth.POST("/quotes/:id/attachment", controllers.UploadQuoteAttachment)

		// Orders and receipts
		auth.GET("/orders", controllers.ListOrders)
		auth.GET("/orders/:id", controllers.GetOrder)
		auth.POST("/orders", controllers.CreateOrder)
		auth.POST("/orders/:id/receipts", controllers.AddReceipt)
		auth.PUT("/orders/:id/receipts/:receiptId", controllers.UpdateReceipt)
		auth.DELETE("/orders/:id/receipts/:receiptId", controllers.DeleteReceipt)

		// Catalog
		auth.GET("/catalog/categories", controllers.ListCategories)
		auth.POST("/catalog/categories", controllers.CreateCategory)
		auth.PUT("/catalog/categories/:id", controllers.UpdateCategory)
		auth.DELETE("/catalog/categories/:id", controllers.DeleteCategory)
		auth.GET("/catalog/products", controllers.ListProducts)
		auth.POST("/catalog/products", controllers.CreateProduct)
		auth.PUT("/catalog/products/:id", controllers.UpdateProduct)
		auth.DELETE("/catalog/products/:id", controllers.DeleteProduct)

		// Settings
		auth.GET("/settings/preset-values", controllers.GetPresetValues)
		auth.PUT("/settings/preset-values", controllers.UpsertPresetValues)
		auth.GET("/settings/pricing-rules", controllers.ListPricingRules)
		auth.POST("/settings/pricing-rules", controllers.CreatePricingRule)
		auth.GET("/settings/templates/:type", controllers.GetTemplate)
		auth.PUT("/settings/templates/:type", controllers.UpsertTemplate)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cabinet Quotes API is running",
	})
}

// databaseStatus returns a raw dump of every table for operational inspection
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	dumps := []struct {
		name string
		rows interface{}
	}{
		{"users", &[]models.User{}},
		{"quotes", &[]models.Quote{}},
		{"spaces", &[]models.Space{}},
		{"cabinet_items", &[]models.CabinetItem{}},
		{"orders", &[]models.Order{}},
		{"receipts", &[]models.Receipt{}},
		{"categories", &[]models.Category{}},
		{"products", &[]models.Product{}},
		{"preset_values", &[]models.PresetValues{}},
		{"pricing_rules", &[]models.PricingRule{}},
		{"formula_steps", &[]models.FormulaStep{}},
		{"templates", &[]models.Template{}},
	}

	tables := make([]gin.H, 0, len(dumps))
	for _, d := range dumps {
		result := db.Find(d.rows)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query table " + d.name,
				},
			})
			return
		}
		tables = append(tables, gin.H{
			"name":  d.name,
			"count": result.RowsAffected,
			"data":  d.rows,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tables":  tables,
	})
}
