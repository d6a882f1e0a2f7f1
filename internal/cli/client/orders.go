package client

import (
	"fmt"
	"net/http"
)

// ListOrders returns one page of orders. The API filters on complete.
func (c *Client) ListOrders(params ListParams) (*Page[Order], error) {
	var page Page[Order]
	if err := c.request(http.MethodGet, "/api/orders/", params.values(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &page, nil
}

// GetOrder returns a single order with its items
func (c *Client) GetOrder(id int) (*Order, error) {
	var order Order
	if err := c.request(http.MethodGet, fmt.Sprintf("/api/orders/%d/", id), nil, nil, &order); err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

type updateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order to status
func (c *Client) UpdateOrderStatus(id int, status OrderStatus) (*Message, error) {
	if _, err := ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}

	var msg Message
	path := fmt.Sprintf("/api/orders/%d/update_status/", id)
	if err := c.request(http.MethodPatch, path, nil, updateStatusRequest{Status: status}, &msg); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return &msg, nil
}

// OrderStatistics returns order counters and revenue
func (c *Client) OrderStatistics() (*OrderStatistics, error) {
	var stats OrderStatistics
	if err := c.request(http.MethodGet, "/api/orders/statistics/", nil, nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to get order statistics: %w", err)
	}
	return &stats, nil
}
