package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shopadmin-dev/shopadmin/internal/models"
)

var customerListing = listing{
	searchColumns: []string{"email", "first_name", "last_name", "username"},
	orderColumns:  map[string]string{"date_joined": "date_joined", "email": "email"},
	defaultOrder:  "date_joined DESC",
}

// customers scopes user queries to non-staff accounts
func (s *Server) customers() *gorm.DB {
	return s.db.Model(&models.User{}).Where("is_staff = ?", false)
}

// @Summary List customers
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search email, name and username"
// @Param ordering query string false "date_joined or email"
// @Success 200 {object} PageResponse[CustomerResponse]
// @Router /api/customers/ [get]
func (s *Server) listCustomers(c *gin.Context) {
	respondPage(s, c, s.customers(), customerListing, func(user *models.User) CustomerResponse {
		return newCustomerResponse(user)
	})
}

// @Summary Get customer
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} CustomerResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/customers/{id}/ [get]
func (s *Server) getCustomer(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var customer models.User
	if !findOr404(s, c, s.customers(), id, &customer) {
		return
	}
	c.JSON(http.StatusOK, newCustomerResponse(&customer))
}

// @Summary Toggle customer active flag
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/customers/{id}/toggle_active/ [patch]
func (s *Server) toggleCustomerActive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var customer models.User
	if !findOr404(s, c, s.customers(), id, &customer) {
		return
	}

	customer.IsActive = !customer.IsActive
	if err := s.db.Model(&customer).Update("is_active", customer.IsActive).Error; err != nil {
		s.internalError(c, err, "Failed to update customer")
		return
	}

	message := "Customer deactivated"
	if customer.IsActive {
		message = "Customer activated"
	}
	s.logger.Info().Uint("customer_id", id).Bool("is_active", customer.IsActive).Msg(message)
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}
