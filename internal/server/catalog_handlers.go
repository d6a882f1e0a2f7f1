package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shopadmin-dev/shopadmin/internal/models"
)

// BulkUpdateRequest sets merchandising flags on several products. Omitted
// flags are left unchanged.
type BulkUpdateRequest struct {
	IDs          []uint `json:"ids" validate:"required,dive,gt=0"`
	IsFeatured   *bool  `json:"is_featured"`
	IsNewArrival *bool  `json:"is_new_arrival"`
	IsBestSeller *bool  `json:"is_best_seller"`
}

// ProductRequest is the writable part of a product. Category is a category
// id; null detaches the product.
type ProductRequest struct {
	Name         string   `json:"name" validate:"required,max=200"`
	SKU          *string  `json:"sku" validate:"omitempty,max=100"`
	Description  string   `json:"description"`
	RegularPrice *Decimal `json:"regular_price" validate:"required,gte=0"`
	SalePrice    *Decimal `json:"sale_price" validate:"omitempty,gte=0"`
	Category     *uint    `json:"category"`
	Material     string   `json:"material" validate:"max=100"`
	IsFeatured   bool     `json:"is_featured"`
	IsNewArrival bool     `json:"is_new_arrival"`
	IsBestSeller bool     `json:"is_best_seller"`
}

func productRequestFrom(p *models.Product) ProductRequest {
	regular := Decimal(p.RegularPrice)
	return ProductRequest{
		Name:         p.Name,
		SKU:          p.SKU,
		Description:  p.Description,
		RegularPrice: &regular,
		SalePrice:    decimalPtr(p.SalePrice),
		Category:     p.CategoryID,
		Material:     p.Material,
		IsFeatured:   p.IsFeatured,
		IsNewArrival: p.IsNewArrival,
		IsBestSeller: p.IsBestSeller,
	}
}

// ProductStatisticsResponse summarises the catalogue
type ProductStatisticsResponse struct {
	TotalProducts    int64 `json:"total_products"`
	FeaturedProducts int64 `json:"featured_products"`
	NewArrivals      int64 `json:"new_arrivals"`
	BestSellers      int64 `json:"best_sellers"`
	CategoriesCount  int64 `json:"categories_count"`
}

var categoryListing = listing{
	searchColumns: []string{"name"},
	orderColumns:  map[string]string{"name": "name", "created_at": "created_at"},
	defaultOrder:  "name ASC",
}

var productListing = listing{
	searchColumns: []string{"name", "sku", "description"},
	orderColumns:  map[string]string{"name": "name", "regular_price": "regular_price", "id": "id"},
	defaultOrder:  "id DESC",
	preloads:      []string{"Category"},
}

// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Param ordering query string false "name or created_at, - for descending"
// @Success 200 {object} PageResponse[CategoryResponse]
// @Router /api/categories/ [get]
func (s *Server) listCategories(c *gin.Context) {
	respondPage(s, c, s.db.Model(&models.Category{}), categoryListing, func(category *models.Category) CategoryResponse {
		return newCategoryResponse(category)
	})
}

// @Router /api/categories/{id}/ [get]
func (s *Server) getCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var category models.Category
	if !findOr404(s, c, s.db, id, &category) {
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(&category))
}

// @Summary List products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param category query int false "Category ID"
// @Param is_featured query bool false "Featured flag"
// @Param is_new_arrival query bool false "New arrival flag"
// @Param is_best_seller query bool false "Best seller flag"
// @Param search query string false "Search name, SKU and description"
// @Param ordering query string false "name, regular_price or id"
// @Success 200 {object} PageResponse[ProductResponse]
// @Failure 400 {object} map[string]interface{}
// @Router /api/products/ [get]
func (s *Server) listProducts(c *gin.Context) {
	query := s.db.Model(&models.Product{})

	var err error
	if query, err = intFilter(c, query, "category", "category_id"); err != nil {
		s.respondFilterError(c, err)
		return
	}
	for param, column := range map[string]string{
		"is_featured":    "is_featured",
		"is_new_arrival": "is_new_arrival",
		"is_best_seller": "is_best_seller",
	} {
		if query, err = boolFilter(c, query, param, column); err != nil {
			s.respondFilterError(c, err)
			return
		}
	}

	respondPage(s, c, query, productListing, func(product *models.Product) ProductResponse {
		return newProductResponse(product)
	})
}

// @Summary Get product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id}/ [get]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var product models.Product
	if !findOr404(s, c, s.db.Preload("Category"), id, &product) {
		return
	}
	c.JSON(http.StatusOK, newProductResponse(&product))
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/products/ [post]
func (s *Server) createProduct(c *gin.Context) {
	var req ProductRequest
	if !s.bindProduct(c, &req, false) {
		return
	}

	var product models.Product
	if !s.applyProduct(c, &product, &req) {
		return
	}
	if err := s.db.Create(&product).Error; err != nil {
		s.internalError(c, err, "Failed to create product")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Uint("product_id", product.ID).Uint("created_by", sessionData.UserID).Msg("Product created")
	s.respondProduct(c, http.StatusCreated, product.ID)
}

// @Summary Update product
// @Description PUT replaces every writable field, PATCH only those sent
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id}/ [put]
// @Router /api/products/{id}/ [patch]
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var product models.Product
	if !findOr404(s, c, s.db, id, &product) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	var req ProductRequest
	if partial {
		req = productRequestFrom(&product)
	}
	if !s.bindProduct(c, &req, partial) {
		return
	}
	if !s.applyProduct(c, &product, &req) {
		return
	}
	if err := s.db.Save(&product).Error; err != nil {
		s.internalError(c, err, "Failed to update product")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Uint("product_id", id).Uint("updated_by", sessionData.UserID).Bool("partial", partial).Msg("Product updated")
	s.respondProduct(c, http.StatusOK, id)
}

// bindProduct decodes and validates a product body. A partial update may
// send no body at all.
func (s *Server) bindProduct(c *gin.Context, req *ProductRequest, partial bool) bool {
	if err := c.ShouldBindJSON(req); err != nil && !(partial && errors.Is(err, io.EOF)) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrors(err))
		return false
	}
	return true
}

// applyProduct copies req onto product after checking the SKU is unused and
// the category exists.
func (s *Server) applyProduct(c *gin.Context, product *models.Product, req *ProductRequest) bool {
	var sku *string
	if req.SKU != nil {
		if trimmed := strings.TrimSpace(*req.SKU); trimmed != "" {
			sku = &trimmed
		}
	}
	if sku != nil {
		query := s.db.Model(&models.Product{}).Where("sku = ?", *sku)
		if product.ID != 0 {
			query = query.Where("id <> ?", product.ID)
		}
		var taken int64
		if err := query.Count(&taken).Error; err != nil {
			s.internalError(c, err, "Failed to check SKU")
			return false
		}
		if taken > 0 {
			c.JSON(http.StatusBadRequest, fieldErrors(map[string]string{"sku": "product with this sku already exists."}))
			return false
		}
	}

	if req.Category != nil {
		var category models.Category
		err := s.db.First(&category, *req.Category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, fieldErrors(map[string]string{
				"category": fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *req.Category),
			}))
			return false
		}
		if err != nil {
			s.internalError(c, err, "Failed to load category")
			return false
		}
	}

	product.Name = strings.TrimSpace(req.Name)
	product.SKU = sku
	product.Description = req.Description
	product.RegularPrice = float64(*req.RegularPrice)
	product.SalePrice = nil
	if req.SalePrice != nil {
		sale := float64(*req.SalePrice)
		product.SalePrice = &sale
	}
	product.CategoryID = req.Category
	product.Category = nil
	product.Material = req.Material
	product.IsFeatured = req.IsFeatured
	product.IsNewArrival = req.IsNewArrival
	product.IsBestSeller = req.IsBestSeller
	return true
}

func (s *Server) respondProduct(c *gin.Context, status int, id uint) {
	var product models.Product
	if err := s.db.Preload("Category").First(&product, id).Error; err != nil {
		s.internalError(c, err, "Failed to load product")
		return
	}
	c.JSON(status, newProductResponse(&product))
}

// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id}/ [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var product models.Product
	if !findOr404(s, c, s.db, id, &product) {
		return
	}
	if err := s.db.Delete(&product).Error; err != nil {
		s.internalError(c, err, "Failed to delete product")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Uint("product_id", id).Uint("deleted_by", sessionData.UserID).Msg("Product deleted")
	c.Status(http.StatusNoContent)
}

// @Summary Bulk update products
// @Description Sets featured, new arrival or best seller flags on several products
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkUpdateRequest true "Bulk update request"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/products/bulk_update/ [post]
func (s *Server) bulkUpdateProducts(c *gin.Context) {
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, fieldErrors(map[string]string{"ids": "A list of product ids is required."}))
		return
	}

	updates := map[string]interface{}{}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.IsNewArrival != nil {
		updates["is_new_arrival"] = *req.IsNewArrival
	}
	if req.IsBestSeller != nil {
		updates["is_best_seller"] = *req.IsBestSeller
	}

	query := s.db.Model(&models.Product{}).Where("id IN ?", req.IDs)
	var matched int64
	if len(req.IDs) > 0 {
		if err := query.Session(&gorm.Session{}).Count(&matched).Error; err != nil {
			s.internalError(c, err, "Failed to count products")
			return
		}
		if len(updates) > 0 {
			if err := query.Updates(updates).Error; err != nil {
				s.internalError(c, err, "Failed to update products")
				return
			}
		}
	}

	s.logger.Info().Int64("products", matched).Interface("updates", updates).Msg("Products bulk updated")
	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Updated %d products", matched)})
}

// @Summary Product statistics
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProductStatisticsResponse
// @Router /api/products/statistics/ [get]
func (s *Server) productStatistics(c *gin.Context) {
	var stats ProductStatisticsResponse
	counts := []struct {
		target *int64
		model  interface{}
		flag   string
	}{
		{&stats.TotalProducts, &models.Product{}, ""},
		{&stats.FeaturedProducts, &models.Product{}, "is_featured"},
		{&stats.NewArrivals, &models.Product{}, "is_new_arrival"},
		{&stats.BestSellers, &models.Product{}, "is_best_seller"},
		{&stats.CategoriesCount, &models.Category{}, ""},
	}
	for _, count := range counts {
		query := s.db.Model(count.model)
		if count.flag != "" {
			query = query.Where(count.flag+" = ?", true)
		}
		if err := query.Count(count.target).Error; err != nil {
			s.internalError(c, err, "Failed to compute product statistics")
			return
		}
	}
	c.JSON(http.StatusOK, stats)
}
