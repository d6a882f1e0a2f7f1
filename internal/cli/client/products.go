package client

import (
	"fmt"
	"net/http"
)

// ListProducts returns one page of products. Filters accepted by the API are
// category, is_featured, is_new_arrival and is_best_seller.
func (c *Client) ListProducts(params ListParams) (*Page[Product], error) {
	var page Page[Product]
	if err := c.request(http.MethodGet, "/api/products/", params.values(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &page, nil
}

// GetProduct returns a single product
func (c *Client) GetProduct(id int) (*Product, error) {
	var product Product
	if err := c.request(http.MethodGet, fmt.Sprintf("/api/products/%d/", id), nil, nil, &product); err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// CreateProduct adds a product to the catalogue
func (c *Client) CreateProduct(input ProductInput) (*Product, error) {
	var product Product
	if err := c.request(http.MethodPost, "/api/products/", nil, input, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// UpdateProduct replaces every writable field of a product
func (c *Client) UpdateProduct(id int, input ProductInput) (*Product, error) {
	var product Product
	if err := c.request(http.MethodPut, fmt.Sprintf("/api/products/%d/", id), nil, input, &product); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return &product, nil
}

// DeleteProduct removes a product
func (c *Client) DeleteProduct(id int) error {
	if err := c.request(http.MethodDelete, fmt.Sprintf("/api/products/%d/", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

// BulkUpdateProducts sets merchandising flags on the given products
func (c *Client) BulkUpdateProducts(update BulkUpdate) (*Message, error) {
	if len(update.IDs) == 0 {
		return nil, fmt.Errorf("no products selected")
	}

	var msg Message
	if err := c.request(http.MethodPost, "/api/products/bulk_update/", nil, update, &msg); err != nil {
		return nil, fmt.Errorf("failed to update products: %w", err)
	}
	return &msg, nil
}

// ProductStatistics returns catalogue counters
func (c *Client) ProductStatistics() (*ProductStatistics, error) {
	var stats ProductStatistics
	if err := c.request(http.MethodGet, "/api/products/statistics/", nil, nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get product statistics: %w", err)
	}
	return &stats, nil
}

// ListCategories returns one page of categories
func (c *Client) ListCategories(params ListParams) (*Page[Category], error) {
	var page Page[Category]
	if err := c.request(http.MethodGet, "/api/categories/", params.values(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return &page, nil
}
