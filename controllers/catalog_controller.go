package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwenyou/cabinet-quotes-api/config"
	"github.com/iwenyou/cabinet-quotes-api/models"
	"gorm.io/datatypes"
)

// CategoryRequest represents the request body for creating or updating a
// catalog category
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// ProductRequest represents the request body for creating or updating a
// catalog product
type ProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	CategoryID  uint     `json:"category_id" binding:"required"`
	Type        string   `json:"type" binding:"required"`
	Materials   []string `json:"materials" binding:"required"`
	UnitCost    float64  `json:"unit_cost" binding:"required"`
	Description *string  `json:"description"`
}

// materialsJSON renders the materials list as a JSON array column value.
func materialsJSON(materials []string) datatypes.JSON {
	if materials == nil {
		materials = []string{}
	}
	b, _ := json.Marshal(materials)
	return datatypes.JSON(b)
}

// ListCategories handles GET /api/v1/catalog/categories
func ListCategories(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var categories []models.Category
	if err := db.Preload("Products").Find(&categories).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
	})
}

// CreateCategory handles POST /api/v1/catalog/categories
func CreateCategory(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	db := config.GetDB()
	if err := db.Create(&category).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    category,
	})
}

// UpdateCategory handles PUT /api/v1/catalog/categories/:id
func UpdateCategory(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var category models.Category
	if err := db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CATEGORY_NOT_FOUND",
				"message": "Category not found",
			},
		})
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
	}
	if err := db.Model(&category).Updates(updates).Error; err != nil {
		respondDBError(c, err)
		return
	}

	category.Name = req.Name
	category.Description = req.Description

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    category,
	})
}

// DeleteCategory handles DELETE /api/v1/catalog/categories/:id - refuses to
// delete a category that still has products referencing it
func DeleteCategory(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var category models.Category
	if err := db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CATEGORY_NOT_FOUND",
				"message": "Category not found",
			},
		})
		return
	}

	var productCount int64
	if err := db.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount).Error; err != nil {
		respondDBError(c, err)
		return
	}
	if productCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CATEGORY_IN_USE",
				"message": "Category still has products and cannot be deleted",
			},
		})
		return
	}

	if err := db.Delete(&category).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListProducts handles GET /api/v1/catalog/products
func ListProducts(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var products []models.Product
	if err := db.Preload("Category").Find(&products).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// CreateProduct handles POST /api/v1/catalog/products
func CreateProduct(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var category models.Category
	if err := db.First(&category, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CATEGORY_NOT_FOUND",
				"message": "Referenced category does not exist",
			},
		})
		return
	}

	product := models.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Type:        req.Type,
		Materials:   materialsJSON(req.Materials),
		UnitCost:    req.UnitCost,
		Description: req.Description,
	}

	if err := db.Create(&product).Error; err != nil {
		respondDBError(c, err)
		return
	}

	if err := db.Preload("Category").First(&product, product.ID).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
	})
}

// UpdateProduct handles PUT /api/v1/catalog/products/:id
func UpdateProduct(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	var category models.Category
	if err := db.First(&category, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CATEGORY_NOT_FOUND",
				"message": "Referenced category does not exist",
			},
		})
		return
	}

	updates := map[string]interface{}{
		"category_id": req.CategoryID,
		"name":        req.Name,
		"type":        req.Type,
		"materials":   materialsJSON(req.Materials),
		"unit_cost":   req.UnitCost,
		"description": req.Description,
	}
	if err := db.Model(&product).Updates(updates).Error; err != nil {
		respondDBError(c, err)
		return
	}

	if err := db.Preload("Category").First(&product, product.ID).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// DeleteProduct handles DELETE /api/v1/catalog/products/:id
func DeleteProduct(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	if err := db.Delete(&product).Error; err != nil {
		respondDBError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
