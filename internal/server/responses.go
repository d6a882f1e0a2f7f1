package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopadmin-dev/shopadmin/internal/models"
)

const placeholderImageURL = "https://placehold.co/300x300/1a1a1f/6b7280?text=No+Image"

// Decimal is a money value serialized as a two-decimal string
type Decimal float64

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(d), 'f', 2, 64))), nil
}

// UnmarshalJSON accepts a decimal string ("999.00") or a JSON number
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = json.Number(strings.TrimSpace(s))
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f, err := raw.Float64()
	if err != nil {
		return fmt.Errorf("a valid number is required")
	}
	*d = Decimal(f)
	return nil
}

func decimalPtr(f *float64) *Decimal {
	if f == nil {
		return nil
	}
	d := Decimal(*f)
	return &d
}

// CategoryResponse is a category as returned by the API
type CategoryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func newCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// ProductResponse is a product as returned by the API
type ProductResponse struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	SKU                *string   `json:"sku"`
	Description        string    `json:"description"`
	RegularPrice       Decimal   `json:"regular_price"`
	SalePrice          *Decimal  `json:"sale_price"`
	DiscountPercentage int       `json:"discount_percentage"`
	Category           *uint     `json:"category"`
	CategoryName       *string   `json:"category_name"`
	Material           string    `json:"material"`
	IsFeatured         bool      `json:"is_featured"`
	IsNewArrival       bool      `json:"is_new_arrival"`
	IsBestSeller       bool      `json:"is_best_seller"`
	MainImageURL       string    `json:"main_image_url"`
	CreatedAt          time.Time `json:"created_at"`
}

func newProductResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:                 p.ID,
		Name:               p.Name,
		SKU:                p.SKU,
		Description:        p.Description,
		RegularPrice:       Decimal(p.RegularPrice),
		SalePrice:          decimalPtr(p.SalePrice),
		DiscountPercentage: p.DiscountPercentage(),
		Category:           p.CategoryID,
		Material:           p.Material,
		IsFeatured:         p.IsFeatured,
		IsNewArrival:       p.IsNewArrival,
		IsBestSeller:       p.IsBestSeller,
		MainImageURL:       p.MainImageURL,
		CreatedAt:          p.CreatedAt,
	}
	if p.Category != nil {
		resp.CategoryName = &p.Category.Name
	}
	if resp.MainImageURL == "" {
		resp.MainImageURL = placeholderImageURL
	}
	return resp
}

// OrderItemResponse is one order line as returned by the API
type OrderItemResponse struct {
	ID           uint      `json:"id"`
	Order        uint      `json:"order"`
	Product      *uint     `json:"product"`
	ProductName  *string   `json:"product_name"`
	ProductPrice *Decimal  `json:"product_price"`
	Quantity     int       `json:"quantity"`
	DateAdded    time.Time `json:"date_added"`
	Total        float64   `json:"get_total"`
}

// OrderResponse is an order as returned by the API
type OrderResponse struct {
	ID            uint                `json:"id"`
	User          *uint               `json:"user"`
	UserID        *uint               `json:"user_id"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail *string             `json:"customer_email"`
	TransactionID string              `json:"transaction_id"`
	Complete      bool                `json:"complete"`
	DateOrdered   time.Time           `json:"date_ordered"`
	Items         []OrderItemResponse `json:"items"`
	CartTotal     float64             `json:"get_cart_total"`
	CartItems     int                 `json:"get_cart_items"`
}

func newOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		User:          o.UserID,
		UserID:        o.UserID,
		CustomerName:  "Guest",
		TransactionID: o.TransactionID,
		Complete:      o.Complete,
		DateOrdered:   o.DateOrdered,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		CartTotal:     o.CartTotal(),
		CartItems:     o.CartItems(),
	}
	if o.User != nil {
		resp.CustomerName = strings.TrimSpace(o.User.FirstName + " " + o.User.LastName)
		if resp.CustomerName == "" {
			resp.CustomerName = o.User.Username
		}
		resp.CustomerEmail = &o.User.Email
	}
	for i := range o.Items {
		item := &o.Items[i]
		line := OrderItemResponse{
			ID:        item.ID,
			Order:     item.OrderID,
			Product:   item.ProductID,
			Quantity:  item.Quantity,
			DateAdded: item.DateAdded,
			Total:     item.Total(),
		}
		if item.Product != nil {
			line.ProductName = &item.Product.Name
			line.ProductPrice = decimalPtr(&item.Product.RegularPrice)
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

// CustomerResponse is a customer account as returned by the API
type CustomerResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsStaff    bool      `json:"is_staff"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

func newCustomerResponse(u *models.User) CustomerResponse {
	return CustomerResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsStaff:    u.IsStaff,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
}

// ReviewResponse is a review as returned by the API
type ReviewResponse struct {
	ID           uint      `json:"id"`
	Product      uint      `json:"product"`
	ProductName  string    `json:"product_name"`
	User         uint      `json:"user"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func newReviewResponse(r *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:        r.ID,
		Product:   r.ProductID,
		User:      r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if r.Product != nil {
		resp.ProductName = r.Product.Name
	}
	if r.User != nil {
		resp.CustomerName = strings.TrimSpace(r.User.FirstName + " " + r.User.LastName)
	}
	return resp
}

// MessageResponse answers action endpoints
type MessageResponse struct {
	Message string `json:"message"`
}
