package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopadmin-dev/shopadmin/internal/auth"
	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
	"github.com/shopadmin-dev/shopadmin/internal/config"
	"github.com/shopadmin-dev/shopadmin/internal/models"
)

func TestAPI_Authentication(t *testing.T) {
	srv := setupTestServer(t)
	login := loginAdmin(t, srv)

	var customer models.User
	require.NoError(t, srv.db.Where("email = ?", "priya@example.com").First(&customer).Error)
	customerToken, err := srv.tokens.GenerateAccessToken(subjectFor(&customer))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
		detail string
	}{
		{"no token", "", http.StatusUnauthorized, detailNoCredentials},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized, detailTokenNotValid},
		{"refresh token", login.Refresh, http.StatusUnauthorized, detailTokenNotValid},
		{"customer token", customerToken, http.StatusForbidden, detailPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/products/", tt.token, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.detail, decodeBody[map[string]string](t, rec)["detail"])
		})
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/products/", login.Access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_ExpiredAccessToken(t *testing.T) {
	srv := setupTestServer(t)
	login := loginAdmin(t, srv)

	claims, err := srv.tokens.ValidateToken(login.Access, auth.TokenTypeAccess)
	require.NoError(t, err)
	srv.tokens.SetClock(func() time.Time { return claims.ExpiresAt.Add(time.Second) })

	rec := doJSON(t, srv, http.MethodGet, "/api/orders/", login.Access, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, detailTokenNotValid, decodeBody[map[string]string](t, rec)["detail"])
}

func TestListProducts_Pagination(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/products/?page_size=3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[client.Page[client.Product]](t, rec)

	assert.Equal(t, 8, page.Count)
	assert.Len(t, page.Results, 3)
	assert.Nil(t, page.Previous)
	require.True(t, page.HasNext())
	next, err := url.Parse(*page.Next)
	require.NoError(t, err)
	assert.Equal(t, "2", next.Query().Get("page"))
	assert.Equal(t, "3", next.Query().Get("page_size"))

	// Newest first by default
	assert.Equal(t, "Zari Border Lehenga", page.Results[0].Name)
	assert.Equal(t, "Lehengas", page.Results[0].CategoryName)

	rec = doJSON(t, srv, http.MethodGet, "/api/products/?page_size=3&page=3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[client.Page[client.Product]](t, rec)
	assert.Len(t, page.Results, 2)
	assert.False(t, page.HasNext())
	assert.NotNil(t, page.Previous)

	rec = doJSON(t, srv, http.MethodGet, "/api/products/?page=9", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts_FiltersSearchOrdering(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	tests := []struct {
		name  string
		query string
		count int
		first string
	}{
		{"search", "search=saree", 3, "Kanjivaram Bridal Saree"},
		{"search terms all match", "search=silk%20bridal", 1, "Kanjivaram Bridal Saree"},
		{"featured", "is_featured=true", 4, "Zari Border Lehenga"},
		{"category", "category=2", 3, "Chikankari Kurta Set"},
		{"ordering", "ordering=regular_price", 8, "Phulkari Dupatta"},
		{"descending ordering", "ordering=-regular_price", 8, "Kanjivaram Bridal Saree"},
		{"unknown ordering falls back", "ordering=material", 8, "Zari Border Lehenga"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/products/?"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			page := decodeBody[client.Page[client.Product]](t, rec)
			assert.Equal(t, tt.count, page.Count)
			require.NotEmpty(t, page.Results)
			assert.Equal(t, tt.first, page.Results[0].Name)
		})
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/products/?is_featured=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string][]string](t, rec), "is_featured")
}

func TestProduct_GetAndDelete(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/products/1/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	product := decodeBody[client.Product](t, rec)
	assert.Equal(t, "Banarasi Silk Saree", product.Name)
	assert.Equal(t, client.Amount(8999), product.RegularPrice)
	assert.Equal(t, client.Amount(7499), product.Price())
	assert.Equal(t, 17, product.DiscountPercentage)
	assert.NotEmpty(t, product.MainImageURL)

	rec = doJSON(t, srv, http.MethodDelete, "/api/products/1/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/products/1/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, detailNotFound, decodeBody[map[string]string](t, rec)["detail"])

	rec = doJSON(t, srv, http.MethodGet, "/api/products/abc/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProduct_Create(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodPost, "/api/products/", token, map[string]interface{}{
		"name":           "Mulmul Kurta",
		"sku":            "KUR-010",
		"regular_price":  "1899.00",
		"sale_price":     1499,
		"category":       2,
		"material":       "Cotton",
		"is_new_arrival": true,
		"size":           "M",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[client.Product](t, rec)
	assert.Equal(t, "Mulmul Kurta", created.Name)
	assert.Equal(t, "KUR-010", created.SKU)
	assert.Equal(t, client.Amount(1899), created.RegularPrice)
	require.NotNil(t, created.SalePrice)
	assert.Equal(t, client.Amount(1499), *created.SalePrice)
	assert.Equal(t, 21, created.DiscountPercentage)
	assert.Equal(t, "Kurtas", created.CategoryName)
	assert.True(t, created.IsNewArrival)
	assert.False(t, created.IsFeatured)

	var stored models.Product
	require.NoError(t, models.FindByID(srv.db, uint(created.ID), &stored))
	assert.Equal(t, 1899.0, stored.RegularPrice)

	rec = doJSON(t, srv, http.MethodPost, "/api/products/", token, map[string]interface{}{"name": "No SKU", "regular_price": 0})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, decodeBody[ProductResponse](t, rec).SKU)
}

func TestProduct_CreateRejections(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
		msg   string
	}{
		{"missing name and price", map[string]interface{}{"sku": "X-1"}, "name", fieldRequired},
		{"missing price", map[string]interface{}{"name": "Kurta"}, "regular_price", fieldRequired},
		{"negative price", map[string]interface{}{"name": "Kurta", "regular_price": -5}, "regular_price", "Ensure this value is greater than or equal to 0."},
		{"duplicate sku", map[string]interface{}{"name": "Copy", "sku": "SAR-001", "regular_price": 10}, "sku", "product with this sku already exists."},
		{"unknown category", map[string]interface{}{"name": "Kurta", "regular_price": 10, "category": 99}, "category", `Invalid pk "99" - object does not exist.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/products/", token, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, []string{tt.msg}, decodeBody[map[string][]string](t, rec)[tt.field])
		})
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/products/", token, map[string]interface{}{"name": "Kurta", "regular_price": "cheap"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, srv.db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(8), count)
}

func TestProduct_Update(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodPut, "/api/products/1/", token, map[string]interface{}{
		"name":          "Banarasi Silk Saree",
		"sku":           "SAR-001",
		"regular_price": "9499.00",
		"sale_price":    nil,
		"category":      nil,
		"is_featured":   true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[ProductResponse](t, rec)
	assert.Equal(t, Decimal(9499), updated.RegularPrice)
	assert.Nil(t, updated.SalePrice)
	assert.Nil(t, updated.Category)
	assert.Nil(t, updated.CategoryName)
	assert.Zero(t, updated.DiscountPercentage)
	assert.False(t, updated.IsBestSeller, "PUT replaces omitted flags")

	rec = doJSON(t, srv, http.MethodPatch, "/api/products/2/", token, map[string]interface{}{"sale_price": "2999.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeBody[ProductResponse](t, rec)
	assert.Equal(t, "Chanderi Cotton Saree", patched.Name)
	require.NotNil(t, patched.SalePrice)
	assert.Equal(t, Decimal(2999), *patched.SalePrice)
	require.NotNil(t, patched.CategoryName)
	assert.Equal(t, "Sarees", *patched.CategoryName)
	assert.True(t, patched.IsNewArrival, "PATCH keeps fields not sent")

	rec = doJSON(t, srv, http.MethodPatch, "/api/products/2/", token, map[string]interface{}{"sku": "SAR-002"})
	assert.Equal(t, http.StatusOK, rec.Code, "a product keeps its own SKU")

	rec = doJSON(t, srv, http.MethodPatch, "/api/products/2/", token, map[string]interface{}{"sku": "SAR-003"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/products/2/", token, map[string]interface{}{"name": "Only name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{fieldRequired}, decodeBody[map[string][]string](t, rec)["regular_price"])

	rec = doJSON(t, srv, http.MethodPut, "/api/products/404/", token, map[string]interface{}{"name": "x", "regular_price": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkUpdateProducts(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodPost, "/api/products/bulk_update/", token, map[string]interface{}{
		"ids":            []int{2, 4, 999},
		"is_featured":    true,
		"is_best_seller": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Updated 2 products", decodeBody[MessageResponse](t, rec).Message)

	var products []models.Product
	require.NoError(t, srv.db.Where("id IN ?", []int{2, 4}).Find(&products).Error)
	for _, p := range products {
		assert.True(t, p.IsFeatured, p.Name)
		assert.False(t, p.IsBestSeller, p.Name)
	}

	var untouched models.Product
	require.NoError(t, models.FindByID(srv.db, 6, &untouched))
	assert.True(t, untouched.IsBestSeller)

	rec = doJSON(t, srv, http.MethodPost, "/api/products/bulk_update/", token, map[string]interface{}{"is_featured": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductStatistics(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/products/statistics/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[client.ProductStatistics](t, rec)
	assert.Equal(t, client.ProductStatistics{
		TotalProducts:    8,
		FeaturedProducts: 4,
		NewArrivals:      4,
		BestSellers:      3,
		CategoriesCount:  4,
	}, stats)
}

func TestOrders(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/orders/?complete=false", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decodeBody[client.Page[client.Order]](t, rec)
	assert.Equal(t, 3, page.Count)
	for _, order := range page.Results {
		assert.Equal(t, "pending", order.Status())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/orders/?search=meera", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = decodeBody[client.Page[client.Order]](t, rec)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "Meera Iyer", page.Results[0].CustomerName)
	assert.Equal(t, "meera@example.com", page.Results[0].CustomerEmail)

	rec = doJSON(t, srv, http.MethodGet, "/api/orders/1/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decodeBody[client.Order](t, rec)
	assert.Equal(t, "TXN001001", order.TransactionID)
	assert.Equal(t, client.Amount(7499+2*1299), order.CartTotal)
	assert.Equal(t, 3, order.CartItems)
	assert.Len(t, order.Items, 2)
}

func TestUpdateOrderStatus(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodPatch, "/api/orders/3/update_status/", token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Order status updated", decodeBody[MessageResponse](t, rec).Message)

	var order models.Order
	require.NoError(t, models.FindByID(srv.db, 3, &order))
	assert.True(t, order.Complete)

	rec = doJSON(t, srv, http.MethodPatch, "/api/orders/3/update_status/", token, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, models.FindByID(srv.db, 3, &order))
	assert.False(t, order.Complete)

	rec = doJSON(t, srv, http.MethodPatch, "/api/orders/3/update_status/", token, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{`"shipped" is not a valid choice.`}, decodeBody[map[string][]string](t, rec)["status"])

	rec = doJSON(t, srv, http.MethodPatch, "/api/orders/404/update_status/", token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomers(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/customers/?ordering=email", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[client.Page[client.Customer]](t, rec)
	require.Equal(t, 3, page.Count, "staff accounts are not customers")
	assert.Equal(t, "arjun@example.com", page.Results[0].Email)

	arjun := page.Results[0]
	rec = doJSON(t, srv, http.MethodGet, "/api/customers/"+itoa(arjun.ID)+"/orders/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decodeBody[[]client.Order](t, rec)
	assert.Len(t, orders, 2)

	rec = doJSON(t, srv, http.MethodPatch, "/api/customers/"+itoa(arjun.ID)+"/toggle_active/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Customer deactivated", decodeBody[MessageResponse](t, rec).Message)

	rec = doJSON(t, srv, http.MethodPatch, "/api/customers/"+itoa(arjun.ID)+"/toggle_active/", token, nil)
	assert.Equal(t, "Customer activated", decodeBody[MessageResponse](t, rec).Message)

	// The admin is staff and not reachable as a customer
	rec = doJSON(t, srv, http.MethodGet, "/api/customers/1/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviews(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/reviews/?rating=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decodeBody[client.Page[client.Review]](t, rec)
	assert.Equal(t, 2, page.Count)

	rec = doJSON(t, srv, http.MethodGet, "/api/reviews/?search=wash", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[client.Page[client.Review]](t, rec)
	require.Equal(t, 1, page.Count)
	review := page.Results[0]
	assert.Equal(t, "Block Print Anarkali Kurta", review.ProductName)
	assert.Equal(t, "Meera Iyer", review.CustomerName)

	rec = doJSON(t, srv, http.MethodDelete, "/api/reviews/"+itoa(review.ID)+"/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/reviews/?rating=x", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/overview/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decodeBody[client.DashboardOverview](t, rec)
	assert.Equal(t, client.DashboardOverview{
		TotalProducts:    8,
		TotalOrders:      5,
		TotalCustomers:   3,
		TotalReviews:     5,
		CompletedOrders:  2,
		PendingOrders:    3,
		FeaturedProducts: 4,
		TotalRevenue:     (7499 + 2*1299) + 3*1499,
	}, overview)

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/recent_orders/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decodeBody[[]client.Order](t, rec)
	require.Len(t, recent, 5)
	assert.Equal(t, "TXN001005", recent[0].TransactionID)

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/top_products/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	top := decodeBody[[]client.Product](t, rec)
	require.Len(t, top, 5)
	assert.Equal(t, "Linen Straight Kurta", top[0].Name)
}

func TestOrderStatistics(t *testing.T) {
	srv := setupTestServer(t)
	token := loginAdmin(t, srv).Access

	rec := doJSON(t, srv, http.MethodGet, "/api/orders/statistics/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[client.OrderStatistics](t, rec)
	assert.Equal(t, 5, stats.TotalOrders)
	assert.Equal(t, 2, stats.CompletedOrders)
	assert.Equal(t, 3, stats.PendingOrders)
	assert.Equal(t, client.Amount(14594), stats.TotalRevenue)
}

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", decodeBody[map[string]interface{}](t, rec)["status"])
}

func TestCORS(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_RequiresAllowedOrigins(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AllowedOrigins = nil

	srv, err := New(cfg, zerolog.Nop(), "test")
	assert.ErrorIs(t, err, config.ErrNoAllowedOrigins)
	assert.Nil(t, srv)
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
