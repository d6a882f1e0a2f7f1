package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Page is the pagination envelope of list endpoints
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// Amount is a decimal money value. The API sends decimals as strings, but
// aggregate fields may arrive as plain numbers.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	*a = Amount(f)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// Message is the {"message": ...} answer of action endpoints
type Message struct {
	Message string `json:"message"`
}

// Category groups products
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalogue entry
type Product struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	SKU                string    `json:"sku"`
	Description        string    `json:"description"`
	RegularPrice       Amount    `json:"regular_price"`
	SalePrice          *Amount   `json:"sale_price"`
	DiscountPercentage int       `json:"discount_percentage"`
	Category           *int      `json:"category"`
	CategoryName       string    `json:"category_name"`
	Material           string    `json:"material"`
	IsFeatured         bool      `json:"is_featured"`
	IsNewArrival       bool      `json:"is_new_arrival"`
	IsBestSeller       bool      `json:"is_best_seller"`
	MainImageURL       string    `json:"main_image_url"`
	CreatedAt          time.Time `json:"created_at"`
}

// Price returns the sale price when set, otherwise the regular price
func (p *Product) Price() Amount {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.RegularPrice
}

// ProductInput is the body of product create and update calls. A nil
// Category or SalePrice clears it.
type ProductInput struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku,omitempty"`
	Description  string  `json:"description"`
	RegularPrice Amount  `json:"regular_price"`
	SalePrice    *Amount `json:"sale_price"`
	Category     *int    `json:"category"`
	Material     string  `json:"material"`
	IsFeatured   bool    `json:"is_featured"`
	IsNewArrival bool    `json:"is_new_arrival"`
	IsBestSeller bool    `json:"is_best_seller"`
}

// Input returns the writable fields of p, ready to be edited and sent back
func (p *Product) Input() ProductInput {
	return ProductInput{
		Name:         p.Name,
		SKU:          p.SKU,
		Description:  p.Description,
		RegularPrice: p.RegularPrice,
		SalePrice:    p.SalePrice,
		Category:     p.Category,
		Material:     p.Material,
		IsFeatured:   p.IsFeatured,
		IsNewArrival: p.IsNewArrival,
		IsBestSeller: p.IsBestSeller,
	}
}

// ProductStatistics summarises the catalogue
type ProductStatistics struct {
	TotalProducts    int `json:"total_products"`
	FeaturedProducts int `json:"featured_products"`
	NewArrivals      int `json:"new_arrivals"`
	BestSellers      int `json:"best_sellers"`
	CategoriesCount  int `json:"categories_count"`
}

// BulkUpdate sets merchandising flags on many products at once. Nil flags are
// left unchanged.
type BulkUpdate struct {
	IDs          []int `json:"ids"`
	IsFeatured   *bool `json:"is_featured,omitempty"`
	IsNewArrival *bool `json:"is_new_arrival,omitempty"`
	IsBestSeller *bool `json:"is_best_seller,omitempty"`
}

// OrderStatus is the value accepted by the status update endpoint
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates s against the accepted statuses
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch status := OrderStatus(s); status {
	case OrderPending, OrderConfirmed, OrderCompleted, OrderCancelled:
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q (expected pending, confirmed, completed or cancelled)", s)
}

// OrderItem is one line of an order
type OrderItem struct {
	ID           int    `json:"id"`
	Product      int    `json:"product"`
	ProductName  string `json:"product_name"`
	ProductPrice Amount `json:"product_price"`
	Quantity     int    `json:"quantity"`
	Total        Amount `json:"get_total"`
}

// Order is a customer order
type Order struct {
	ID            int         `json:"id"`
	UserID        int         `json:"user_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	TransactionID string      `json:"transaction_id"`
	Complete      bool        `json:"complete"`
	DateOrdered   time.Time   `json:"date_ordered"`
	Items         []OrderItem `json:"items"`
	CartTotal     Amount      `json:"get_cart_total"`
	CartItems     int         `json:"get_cart_items"`
}

// Status is the coarse state shown to admins
func (o *Order) Status() string {
	if o.Complete {
		return "completed"
	}
	return "pending"
}

// OrderStatistics summarises orders
type OrderStatistics struct {
	TotalOrders     int    `json:"total_orders"`
	CompletedOrders int    `json:"completed_orders"`
	PendingOrders   int    `json:"pending_orders"`
	TotalRevenue    Amount `json:"total_revenue"`
}

// Customer is a non-staff account
type Customer struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsStaff    bool      `json:"is_staff"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// FullName returns first and last name, falling back to the username
func (c *Customer) FullName() string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	if name == "" {
		return c.Username
	}
	return name
}

// Review is a product review left by a customer
type Review struct {
	ID           int       `json:"id"`
	Product      int       `json:"product"`
	ProductName  string    `json:"product_name"`
	User         int       `json:"user"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

// DashboardOverview holds the headline numbers of the dashboard
type DashboardOverview struct {
	TotalProducts    int    `json:"total_products"`
	TotalOrders      int    `json:"total_orders"`
	TotalCustomers   int    `json:"total_customers"`
	TotalReviews     int    `json:"total_reviews"`
	CompletedOrders  int    `json:"completed_orders"`
	PendingOrders    int    `json:"pending_orders"`
	FeaturedProducts int    `json:"featured_products"`
	TotalRevenue     Amount `json:"total_revenue"`
}
