package client

import (
	"fmt"
	"net/http"
)

// DashboardOverview returns the headline numbers
func (c *Client) DashboardOverview() (*DashboardOverview, error) {
	var overview DashboardOverview
	if err := c.request(http.MethodGet, "/api/dashboard/overview/", nil, nil, &overview); err != nil {
		return nil, fmt.Errorf("failed to get dashboard overview: %w", err)
	}
	return &overview, nil
}

// RecentOrders returns the ten newest orders
func (c *Client) RecentOrders() ([]Order, error) {
	var orders []Order
	if err := c.request(http.MethodGet, "/api/dashboard/recent_orders/", nil, nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return orders, nil
}

// TopProducts returns the five most ordered products
func (c *Client) TopProducts() ([]Product, error) {
	var products []Product
	if err := c.request(http.MethodGet, "/api/dashboard/top_products/", nil, nil, &products); err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return products, nil
}
