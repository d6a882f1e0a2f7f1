package client

import (
	"fmt"
	"net/http"
)

// ListReviews returns one page of reviews. Filters: rating, product.
func (c *Client) ListReviews(params ListParams) (*Page[Review], error) {
	var page Page[Review]
	if err := c.request(http.MethodGet, "/api/reviews/", params.values(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return &page, nil
}

// DeleteReview removes a review
func (c *Client) DeleteReview(id int) error {
	if err := c.request(http.MethodDelete, fmt.Sprintf("/api/reviews/%d/", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete review %d: %w", id, err)
	}
	return nil
}
