package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopadmin-dev/shopadmin/internal/models"
)

// orderStatusComplete maps each accepted status to the order's complete flag
var orderStatusComplete = map[string]bool{
	"pending":   false,
	"confirmed": false,
	"completed": true,
	"cancelled": false,
}

// UpdateOrderStatusRequest represents an order status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,orderstatus"`
}

// OrderStatisticsResponse summarises orders
type OrderStatisticsResponse struct {
	TotalOrders     int64   `json:"total_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

var orderListing = listing{
	searchColumns: []string{"users.email", "users.first_name", "users.last_name", "orders.transaction_id"},
	orderColumns:  map[string]string{"date_ordered": "orders.date_ordered", "id": "orders.id"},
	defaultOrder:  "orders.date_ordered DESC",
	preloads:      []string{"User", "Items.Product"},
	selectColumns: "orders.*",
}

// @Summary List orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param complete query bool false "Completion flag"
// @Param search query string false "Search customer email, name and transaction ID"
// @Param ordering query string false "date_ordered or id"
// @Success 200 {object} PageResponse[OrderResponse]
// @Router /api/orders/ [get]
func (s *Server) listOrders(c *gin.Context) {
	query := s.db.Model(&models.Order{}).Joins("LEFT JOIN users ON users.id = orders.user_id")

	query, err := boolFilter(c, query, "complete", "orders.complete")
	if err != nil {
		s.respondFilterError(c, err)
		return
	}

	respondPage(s, c, query, orderListing, func(order *models.Order) OrderResponse {
		return newOrderResponse(order)
	})
}

// @Summary Get order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/orders/{id}/ [get]
func (s *Server) getOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var order models.Order
	if !findOr404(s, c, s.db.Preload("User").Preload("Items.Product"), id, &order) {
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(&order))
}

// @Summary Update order status
// @Description completed marks the order complete, any other status reopens it
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body UpdateOrderStatusRequest true "Status update"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/orders/{id}/update_status/ [patch]
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var order models.Order
	if !findOr404(s, c, s.db, id, &order) {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrors(err))
		return
	}

	complete := orderStatusComplete[req.Status]
	if err := s.db.Model(&order).Update("complete", complete).Error; err != nil {
		s.internalError(c, err, "Failed to update order")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Uint("order_id", id).
		Str("status", req.Status).
		Uint("updated_by", sessionData.UserID).
		Msg("Order status updated")

	c.JSON(http.StatusOK, MessageResponse{Message: "Order status updated"})
}

// @Summary Order statistics
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} OrderStatisticsResponse
// @Router /api/orders/statistics/ [get]
func (s *Server) orderStatistics(c *gin.Context) {
	var stats OrderStatisticsResponse
	if err := s.db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		s.internalError(c, err, "Failed to count orders")
		return
	}
	if err := s.db.Model(&models.Order{}).Where("complete = ?", true).Count(&stats.CompletedOrders).Error; err != nil {
		s.internalError(c, err, "Failed to count orders")
		return
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

// completedRevenue sums the cart totals of complete orders
func (s *Server) completedRevenue() (float64, error) {
	var orders []models.Order
	if err := s.db.Where("complete = ?", true).Preload("Items.Product").Find(&orders).Error; err != nil {
		return 0, err
	}
	var total float64
	for i := range orders {
		total += orders[i].CartTotal()
	}
	return total, nil
}

// @Summary Customer orders
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {array} OrderResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/customers/{id}/orders/ [get]
func (s *Server) customerOrders(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var customer models.User
	if !findOr404(s, c, s.customers(), id, &customer) {
		return
	}

	var orders []models.Order
	if err := s.db.Where("user_id = ?", customer.ID).
		Order("date_ordered DESC").
		Preload("User").
		Preload("Items.Product").
		Find(&orders).Error; err != nil {
		s.internalError(c, err, "Failed to list customer orders")
		return
	}

	c.JSON(http.StatusOK, serializeOrders(orders))
}

func serializeOrders(orders []models.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}
	return resp
}
