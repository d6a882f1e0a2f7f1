package client

import (
	"fmt"
	"net/http"
)

// ListCustomers returns one page of customers
func (c *Client) ListCustomers(params ListParams) (*Page[Customer], error) {
	var page Page[Customer]
	if err := c.request(http.MethodGet, "/api/customers/", params.values(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return &page, nil
}

// GetCustomer returns a single customer
func (c *Client) GetCustomer(id int) (*Customer, error) {
	var customer Customer
	if err := c.request(http.MethodGet, fmt.Sprintf("/api/customers/%d/", id), nil, nil, &customer); err != nil {
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}
	return &customer, nil
}

// CustomerOrders returns every order placed by a customer, newest first
func (c *Client) CustomerOrders(id int) ([]Order, error) {
	var orders []Order
	if err := c.request(http.MethodGet, fmt.Sprintf("/api/customers/%d/orders/", id), nil, nil, &orders); err != nil {
		return nil, fmt.Errorf("failed to get orders of customer %d: %w", id, err)
	}
	return orders, nil
}

// ToggleCustomerActive activates an inactive customer or deactivates an
// active one
func (c *Client) ToggleCustomerActive(id int) (*Message, error) {
	var msg Message
	if err := c.request(http.MethodPatch, fmt.Sprintf("/api/customers/%d/toggle_active/", id), nil, nil, &msg); err != nil {
		return nil, fmt.Errorf("failed to toggle customer %d: %w", id, err)
	}
	return &msg, nil
}
