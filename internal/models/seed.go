package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// EnsureAdmin creates the initial superuser unless a staff account already exists.
// It reports whether a user was created.
func EnsureAdmin(db *gorm.DB, email, passwordHash string) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Where("is_staff = ?", true).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count staff users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	username, _, _ := strings.Cut(email, "@")
	admin := User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Shop",
		LastName:     "Admin",
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}
	return true, nil
}

// ErrAlreadySeeded is returned when the catalogue already has products
var ErrAlreadySeeded = errors.New("demo data already present")

type demoProduct struct {
	name, sku, category, material string
	regular, sale                 float64
	featured, newArrival, best    bool
}

var demoProducts = []demoProduct{
	{"Banarasi Silk Saree", "SAR-001", "Sarees", "Silk", 8999, 7499, true, false, true},
	{"Chanderi Cotton Saree", "SAR-002", "Sarees", "Cotton", 3499, 0, false, true, false},
	{"Kanjivaram Bridal Saree", "SAR-003", "Sarees", "Silk", 24999, 21999, true, false, false},
	{"Linen Straight Kurta", "KUR-001", "Kurtas", "Linen", 1899, 1499, false, true, true},
	{"Block Print Anarkali Kurta", "KUR-002", "Kurtas", "Cotton", 2499, 0, true, true, false},
	{"Chikankari Kurta Set", "KUR-003", "Kurtas", "Georgette", 3999, 3299, false, false, true},
	{"Phulkari Dupatta", "DUP-001", "Dupattas", "Chiffon", 1299, 0, false, true, false},
	{"Zari Border Lehenga", "LEH-001", "Lehengas", "Velvet", 18999, 15999, true, false, false},
}

type demoCustomer struct {
	username, email, first, last string
}

var demoCustomers = []demoCustomer{
	{"priya", "priya@example.com", "Priya", "Sharma"},
	{"arjun", "arjun@example.com", "Arjun", "Mehta"},
	{"meera", "meera@example.com", "Meera", "Iyer"},
}

// SeedDemoData fills an empty database with a small catalogue, customers,
// orders and reviews. Customers share passwordHash.
func SeedDemoData(db *gorm.DB, passwordHash string) error {
	var count int64
	if err := db.Model(&Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return ErrAlreadySeeded
	}

	return db.Transaction(func(tx *gorm.DB) error {
		categories := map[string]*Category{}
		for _, name := range []string{"Sarees", "Kurtas", "Dupattas", "Lehengas"} {
			category := &Category{Name: name}
			if err := tx.Create(category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", name, err)
			}
			categories[name] = category
		}

		products := make([]*Product, 0, len(demoProducts))
		for _, p := range demoProducts {
			sku := p.sku
			product := &Product{
				Name:         p.name,
				SKU:          &sku,
				Description:  fmt.Sprintf("Handcrafted %s in %s.", strings.ToLower(p.name), strings.ToLower(p.material)),
				RegularPrice: p.regular,
				CategoryID:   &categories[p.category].ID,
				Material:     p.material,
				IsFeatured:   p.featured,
				IsNewArrival: p.newArrival,
				IsBestSeller: p.best,
			}
			if p.sale > 0 {
				sale := p.sale
				product.SalePrice = &sale
			}
			if err := tx.Create(product).Error; err != nil {
				return fmt.Errorf("failed to create product %s: %w", p.name, err)
			}
			products = append(products, product)
		}

		customers := make([]*User, 0, len(demoCustomers))
		for _, c := range demoCustomers {
			customer := &User{
				Username:     c.username,
				Email:        c.email,
				PasswordHash: passwordHash,
				FirstName:    c.first,
				LastName:     c.last,
				IsActive:     true,
			}
			if err := tx.Create(customer).Error; err != nil {
				return fmt.Errorf("failed to create customer %s: %w", c.username, err)
			}
			customers = append(customers, customer)
		}

		now := time.Now()
		orders := []struct {
			customer int
			daysAgo  int
			complete bool
			lines    map[int]int
		}{
			{0, 12, true, map[int]int{0: 1, 6: 2}},
			{1, 6, true, map[int]int{3: 3}},
			{2, 2, false, map[int]int{4: 1, 5: 1}},
			{0, 1, false, map[int]int{7: 1}},
			{1, 0, false, map[int]int{3: 1, 1: 1}},
		}
		for i, o := range orders {
			order := &Order{
				UserID:        &customers[o.customer].ID,
				DateOrdered:   now.Add(-time.Duration(o.daysAgo) * 24 * time.Hour),
				Complete:      o.complete,
				TransactionID: fmt.Sprintf("TXN%06d", 1001+i),
			}
			for productIdx, quantity := range o.lines {
				order.Items = append(order.Items, OrderItem{ProductID: &products[productIdx].ID, Quantity: quantity})
			}
			if err := tx.Create(order).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
		}

		reviews := []Review{
			{ProductID: products[0].ID, UserID: customers[0].ID, Rating: 5, Comment: "Gorgeous weave, colours exactly as shown."},
			{ProductID: products[3].ID, UserID: customers[1].ID, Rating: 4, Comment: "Comfortable for office wear."},
			{ProductID: products[3].ID, UserID: customers[2].ID, Rating: 3, Comment: "Runs a little large."},
			{ProductID: products[6].ID, UserID: customers[0].ID, Rating: 5, Comment: "Beautiful embroidery."},
			{ProductID: products[4].ID, UserID: customers[2].ID, Rating: 2, Comment: "Print faded after first wash."},
		}
		if err := tx.Create(&reviews).Error; err != nil {
			return fmt.Errorf("failed to create reviews: %w", err)
		}
		return nil
	})
}
