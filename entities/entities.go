package entities

import (
	"encoding/json"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"

	"github.com/shopspring/decimal"
)

type Category struct {
	Id           int       `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	ImageUrl     *string   `json:"image_url"`
	ParentId     *int      `json:"parent_id"`
	DisplayOrder *int      `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryRequest is used for create and partial update: nil fields are left
// untouched on update.
type CategoryRequest struct {
	Name         *string        `json:"name"`
	Slug         *string        `json:"slug"`
	Description  *string        `json:"description"`
	ImageUrl     *string        `json:"image_url"`
	ParentId     models.NullInt `json:"parent_id"`
	DisplayOrder *int           `json:"display_order"`
}

type Product struct {
	Id             int              `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    *string          `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	OldPrice       *decimal.Decimal `json:"old_price"`
	CategoryId     *int             `json:"category_id"`
	Manufacturer   *string          `json:"manufacturer"`
	Model          *string          `json:"model"`
	ImageUrl       *string          `json:"image_url"`
	InStock        bool             `json:"in_stock"`
	Featured       bool             `json:"featured"`
	Specifications json.RawMessage  `json:"specifications"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ProductRequest is the admin create/replace payload and also the generic
// bulk import item shape.
type ProductRequest struct {
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          *decimal.Decimal `json:"price"`
	OldPrice       *decimal.Decimal `json:"old_price"`
	CategoryId     *int             `json:"category_id"`
	CategorySlug   string           `json:"category_slug"`
	Category       string           `json:"category"`
	Manufacturer   string           `json:"manufacturer"`
	Model          string           `json:"model"`
	ImageUrl       string           `json:"image_url"`
	InStock        *bool            `json:"in_stock"`
	Featured       *bool            `json:"featured"`
	Specifications json.RawMessage  `json:"specifications"`
}

// CategoryRef returns the category reference of an import item: slug first,
// then name.
func (p ProductRequest) CategoryRef() string {
	if p.CategorySlug != "" {
		return p.CategorySlug
	}
	return p.Category
}

type ImportError struct {
	Index   int    `json:"index"`
	Product string `json:"product"`
	Error   string `json:"error"`
}

type ImportResult struct {
	Success  bool          `json:"success"`
	Source   string        `json:"source,omitempty"`
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
	Errors   []ImportError `json:"errors"`
}

type CustomerInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type OrderItemInput struct {
	ProductId int              `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

type OrderRequest struct {
	Customer        *CustomerInput   `json:"customer"`
	ShippingAddress *ShippingAddress `json:"shippingAddress"`
	Items           []OrderItemInput `json:"items"`
	PaymentMethod   string           `json:"paymentMethod"`
	DeliveryMethod  string           `json:"deliveryMethod"`
	Comment         string           `json:"comment"`
}

type OrderCreated struct {
	Id          int             `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Customer struct {
	Id        int       `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderItem struct {
	Id        int             `json:"id"`
	ProductId int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Order struct {
	Id              int             `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerId      int             `json:"customerId"`
	Customer        *Customer       `json:"customer,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	DeliveryMethod  string          `json:"deliveryMethod"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Comment         *string         `json:"comment"`
	Items           []OrderItem     `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

type ContactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	ProductModel string `json:"product_model"`
}

type Contact struct {
	Id           int       `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        *string   `json:"email"`
	Message      *string   `json:"message"`
	ProductModel *string   `json:"product_model"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeliveryRequest struct {
	City         string `json:"city"`
	ProductModel string `json:"product_model"`
	Phone        string `json:"phone"`
}

type DeliveryQuote struct {
	RequestId     int             `json:"request_id"`
	City          string          `json:"city"`
	ProductModel  string          `json:"product_model"`
	Phone         string          `json:"phone,omitempty"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	EstimatedDays string          `json:"estimated_days"`
	Status        string          `json:"status,omitempty"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
}

type LeadPage[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionInfo struct {
	UserId int
	Role   string
}
