package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopadmin-dev/shopadmin/internal/models"
)

var reviewListing = listing{
	searchColumns: []string{"users.email", "products.name", "reviews.comment"},
	orderColumns:  map[string]string{"created_at": "reviews.created_at", "rating": "reviews.rating"},
	defaultOrder:  "reviews.created_at DESC",
	preloads:      []string{"User", "Product"},
	selectColumns: "reviews.*",
}

// @Summary List reviews
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param rating query int false "Rating"
// @Param product query int false "Product ID"
// @Param search query string false "Search customer email, product name and comment"
// @Param ordering query string false "created_at or rating"
// @Success 200 {object} PageResponse[ReviewResponse]
// @Failure 400 {object} map[string]interface{}
// @Router /api/reviews/ [get]
func (s *Server) listReviews(c *gin.Context) {
	query := s.db.Model(&models.Review{}).
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Joins("LEFT JOIN products ON products.id = reviews.product_id")

	var err error
	if query, err = intFilter(c, query, "rating", "reviews.rating"); err != nil {
		s.respondFilterError(c, err)
		return
	}
	if query, err = intFilter(c, query, "product", "reviews.product_id"); err != nil {
		s.respondFilterError(c, err)
		return
	}

	respondPage(s, c, query, reviewListing, func(review *models.Review) ReviewResponse {
		return newReviewResponse(review)
	})
}

// @Router /api/reviews/{id}/ [get]
func (s *Server) getReview(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var review models.Review
	if !findOr404(s, c, s.db.Preload("User").Preload("Product"), id, &review) {
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(&review))
}

// @Summary Delete review
// @Tags reviews
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/reviews/{id}/ [delete]
func (s *Server) deleteReview(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var review models.Review
	if !findOr404(s, c, s.db, id, &review) {
		return
	}
	if err := s.db.Delete(&review).Error; err != nil {
		s.internalError(c, err, "Failed to delete review")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().Uint("review_id", id).Uint("deleted_by", sessionData.UserID).Msg("Review deleted")
	c.Status(http.StatusNoContent)
}
