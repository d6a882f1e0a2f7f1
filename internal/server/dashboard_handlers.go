package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopadmin-dev/shopadmin/internal/models"
)

const (
	recentOrdersLimit = 10
	topProductsLimit  = 5
)

// DashboardOverviewResponse holds the headline numbers of the dashboard
type DashboardOverviewResponse struct {
	TotalProducts    int64   `json:"total_products"`
	TotalOrders      int64   `json:"total_orders"`
	TotalCustomers   int64   `json:"total_customers"`
	TotalReviews     int64   `json:"total_reviews"`
	CompletedOrders  int64   `json:"completed_orders"`
	PendingOrders    int64   `json:"pending_orders"`
	FeaturedProducts int64   `json:"featured_products"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// @Summary Dashboard overview
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardOverviewResponse
// @Router /api/dashboard/overview/ [get]
func (s *Server) dashboardOverview(c *gin.Context) {
	var stats DashboardOverviewResponse

	counts := []func() error{
		func() error { return s.db.Model(&models.Product{}).Count(&stats.TotalProducts).Error },
		func() error { return s.db.Model(&models.Order{}).Count(&stats.TotalOrders).Error },
		func() error { return s.customers().Count(&stats.TotalCustomers).Error },
		func() error { return s.db.Model(&models.Review{}).Count(&stats.TotalReviews).Error },
		func() error {
			return s.db.Model(&models.Order{}).Where("complete = ?", true).Count(&stats.CompletedOrders).Error
		},
		func() error {
			return s.db.Model(&models.Product{}).Where("is_featured = ?", true).Count(&stats.FeaturedProducts).Error
		},
	}
	for _, count := range counts {
		if err := count(); err != nil {
			s.internalError(c, err, "Failed to compute dashboard overview")
			return
		}
	}
	stats.PendingOrders = stats.TotalOrders - stats.CompletedOrders

	revenue, err := s.completedRevenue()
	if err != nil {
		s.internalError(c, err, "Failed to compute revenue")
		return
	}
	stats.TotalRevenue = revenue

	c.JSON(http.StatusOK, stats)
}

// @Summary Recent orders
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {array} OrderResponse
// @Router /api/dashboard/recent_orders/ [get]
func (s *Server) recentOrders(c *gin.Context) {
	var orders []models.Order
	if err := s.db.Order("date_ordered DESC").
		Limit(recentOrdersLimit).
		Preload("User").
		Preload("Items.Product").
		Find(&orders).Error; err != nil {
		s.internalError(c, err, "Failed to list recent orders")
		return
	}
	c.JSON(http.StatusOK, serializeOrders(orders))
}

// @Summary Top products
// @Description Products ordered most often
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ProductResponse
// @Router /api/dashboard/top_products/ [get]
func (s *Server) topProducts(c *gin.Context) {
	var products []models.Product
	if err := s.db.Model(&models.Product{}).
		Select("products.*, COUNT(order_items.id) AS order_count").
		Joins("LEFT JOIN order_items ON order_items.product_id = products.id").
		Group("products.id").
		Order("order_count DESC, products.id ASC").
		Limit(topProductsLimit).
		Preload("Category").
		Find(&products).Error; err != nil {
		s.internalError(c, err, "Failed to list top products")
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, newProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, resp)
}
