package models

import (
	"math"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for internal models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global server configuration
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// BlacklistedToken records a refresh token that was rotated out or revoked
type BlacklistedToken struct {
	BaseModel
	JTI       string    `json:"jti" gorm:"type:varchar(26);uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
}

// User is an account. Staff users administer the shop, everyone else is a customer.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsStaff      bool      `json:"is_staff" gorm:"not null;default:false"`
	IsSuperuser  bool      `json:"is_superuser" gorm:"not null;default:false"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	DateJoined   time.Time `json:"date_joined" gorm:"autoCreateTime"`
}

// FullName returns first and last name, falling back to the username
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Category groups products
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Product is a catalogue entry
type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	SKU          *string   `json:"sku" gorm:"uniqueIndex"`
	Description  string    `json:"description"`
	RegularPrice float64   `json:"regular_price" gorm:"type:decimal(10,2);not null;default:0"`
	SalePrice    *float64  `json:"sale_price" gorm:"type:decimal(10,2)"`
	CategoryID   *uint     `json:"category" gorm:"index"`
	Category     *Category `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Material     string    `json:"material"`
	IsFeatured   bool      `json:"is_featured" gorm:"not null;default:false"`
	IsNewArrival bool      `json:"is_new_arrival" gorm:"not null;default:false"`
	IsBestSeller bool      `json:"is_best_seller" gorm:"not null;default:false"`
	MainImageURL string    `json:"main_image_url"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Price returns the sale price when set, otherwise the regular price
func (p *Product) Price() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.RegularPrice
}

// DiscountPercentage returns the rounded discount of the sale price
func (p *Product) DiscountPercentage() int {
	if p.SalePrice == nil || *p.SalePrice <= 0 || p.RegularPrice <= 0 || *p.SalePrice >= p.RegularPrice {
		return 0
	}
	return int(math.Round((p.RegularPrice - *p.SalePrice) / p.RegularPrice * 100))
}

// Order is a customer order. It is complete once paid and fulfilled.
type Order struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	UserID        *uint       `json:"user_id" gorm:"index"`
	User          *User       `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	DateOrdered   time.Time   `json:"date_ordered" gorm:"autoCreateTime"`
	Complete      bool        `json:"complete" gorm:"not null;default:false;index"`
	TransactionID string      `json:"transaction_id"`
	Items         []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
}

// CartTotal sums the order lines
func (o *Order) CartTotal() float64 {
	var total float64
	for i := range o.Items {
		total += o.Items[i].Total()
	}
	return math.Round(total*100) / 100
}

// CartItems counts the units in the order
func (o *Order) CartItems() int {
	var count int
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// OrderItem is one line of an order
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order" gorm:"index;not null"`
	ProductID *uint     `json:"product" gorm:"index"`
	Product   *Product  `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"`
	DateAdded time.Time `json:"date_added" gorm:"autoCreateTime"`
}

// Total is the line total at the product's current price
func (i *OrderItem) Total() float64 {
	if i.Product == nil {
		return 0
	}
	return i.Product.Price() * float64(i.Quantity)
}

// Review is a customer's rating of a product
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product" gorm:"index;not null"`
	Product   *Product  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UserID    uint      `json:"user" gorm:"index;not null"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Config{}, &BlacklistedToken{},
		&User{}, &Category{}, &Product{}, &Order{}, &OrderItem{}, &Review{},
	}

	return db.AutoMigrate(models...)
}

// FindByID finds a record by primary key
func FindByID[T any](db *gorm.DB, id uint, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id uint, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
