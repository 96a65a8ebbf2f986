package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "pending"
	LeadStatusNew      = "new"

	RoleAdmin = "admin"
)

type Credentials struct {
	Password string `json:"password"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Category_db struct {
	Id           int
	Name         string
	Slug         string
	Description  sql.NullString
	ImageUrl     sql.NullString
	ParentId     sql.NullInt64
	DisplayOrder sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product_db struct {
	Id             int
	Name           string
	Slug           string
	Description    sql.NullString
	Price          decimal.Decimal
	OldPrice       decimal.NullDecimal
	CategoryId     sql.NullInt64
	Manufacturer   sql.NullString
	Model          sql.NullString
	ImageUrl       sql.NullString
	InStock        bool
	Featured       bool
	Specifications []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Customer_db struct {
	Id        int
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order_db struct {
	Id              int
	CustomerId      int
	TotalAmount     decimal.Decimal
	Status          string
	PaymentMethod   string
	DeliveryMethod  string
	ShippingAddress []byte
	Comment         sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem_db struct {
	Id        int
	OrderId   int
	ProductId int
	Quantity  int
	Price     decimal.Decimal
}

type Contact_db struct {
	Id           int
	Name         string
	Phone        string
	Email        sql.NullString
	Message      sql.NullString
	ProductModel sql.NullString
	Status       string
	CreatedAt    time.Time
}

type DeliveryRequest_db struct {
	Id            int
	City          string
	ProductModel  string
	Phone         string
	EstimatedCost decimal.Decimal
	EstimatedDays string
	Status        string
	CreatedAt     time.Time
}

type User_db struct {
	Id       int
	Nickname string
	Password string
	Role     string
}

type OrderSearchData struct {
	CustomerId *int
	Status     *string
	Limit      int
	Offset     int
}

type LeadSearchData struct {
	Status *string
	Limit  int
	Offset int
}

type ProductSearchData struct {
	CategoryId *int
	Query      string
	InStock    bool
	Limit      int
}

// NullInt tells an absent JSON key (Valid == false) apart from an explicit
// value. An explicit null decodes as Valid with Value 0.
type NullInt struct {
	Valid bool
	Value int
}

func (ni *NullInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ni.Valid = true
		ni.Value = 0
		return nil
	}
	ni.Valid = true
	return json.Unmarshal(data, &ni.Value)
}
