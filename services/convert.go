package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

func toCategory(c models.Category_db) entities.Category {
	return entities.Category{
		Id:           c.Id,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  stringPtr(c.Description),
		ImageUrl:     stringPtr(c.ImageUrl),
		ParentId:     intPtr(c.ParentId),
		DisplayOrder: intPtr(c.DisplayOrder),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toProduct(p models.Product_db) entities.Product {
	pEnt := entities.Product{
		Id:           p.Id,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  stringPtr(p.Description),
		Price:        p.Price,
		CategoryId:   intPtr(p.CategoryId),
		Manufacturer: stringPtr(p.Manufacturer),
		Model:        stringPtr(p.Model),
		ImageUrl:     stringPtr(p.ImageUrl),
		InStock:      p.InStock,
		Featured:     p.Featured,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.OldPrice.Valid {
		old := p.OldPrice.Decimal
		pEnt.OldPrice = &old
	}
	if len(p.Specifications) > 0 {
		pEnt.Specifications = json.RawMessage(p.Specifications)
	}
	return pEnt
}

func toProducts(prods []models.Product_db) []entities.Product {
	res := make([]entities.Product, 0, len(prods))
	for _, p := range prods {
		res = append(res, toProduct(p))
	}
	return res
}

func toCustomer(c models.Customer_db) entities.Customer {
	return entities.Customer{
		Id:        c.Id,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// OrderNumber formats the public order number, e.g. ORD-000042.
func OrderNumber(orderId int) string {
	return fmt.Sprintf("ORD-%06d", orderId)
}

func toOrder(o models.Order_db) entities.Order {
	order := entities.Order{
		Id:             o.Id,
		OrderNumber:    OrderNumber(o.Id),
		CustomerId:     o.CustomerId,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		DeliveryMethod: o.DeliveryMethod,
		Comment:        stringPtr(o.Comment),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if len(o.ShippingAddress) > 0 {
		if err := json.Unmarshal(o.ShippingAddress, &order.ShippingAddress); err != nil {
			slog.Warn("toOrder: bad shipping address", "order_id", o.Id, "err", err)
		}
	}
	return order
}

func toOrderItem(i models.OrderItem_db) entities.OrderItem {
	return entities.OrderItem{
		Id:        i.Id,
		ProductId: i.ProductId,
		Quantity:  i.Quantity,
		Price:     i.Price,
		Subtotal:  i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))),
	}
}

func toContact(c models.Contact_db) entities.Contact {
	return entities.Contact{
		Id:           c.Id,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        stringPtr(c.Email),
		Message:      stringPtr(c.Message),
		ProductModel: stringPtr(c.ProductModel),
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
	}
}

func toDeliveryQuote(d models.DeliveryRequest_db) entities.DeliveryQuote {
	createdAt := d.CreatedAt
	return entities.DeliveryQuote{
		RequestId:     d.Id,
		City:          d.City,
		ProductModel:  d.ProductModel,
		Phone:         d.Phone,
		EstimatedCost: d.EstimatedCost,
		EstimatedDays: d.EstimatedDays,
		Status:        d.Status,
		CreatedAt:     &createdAt,
	}
}
