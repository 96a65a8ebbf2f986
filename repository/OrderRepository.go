package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order models.Order_db) (orderId int, createdAt time.Time, err error)
	SetOrderItems(ctx context.Context, orderId int, items []models.OrderItem_db) (err error)
	DeleteOrder(ctx context.Context, orderId int) (err error)
	GetOrderById(ctx context.Context, orderId int) (order models.Order_db, exists bool, err error)
	GetOrderItems(ctx context.Context, orderId int) (items []models.OrderItem_db, err error)
	SearchOrders(ctx context.Context, data models.OrderSearchData) (orders []models.Order_db, total int, err error)
}

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepository(conn *sql.DB) (OrderRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &OrderRepo{
		db: conn,
	}, nil
}

const orderColumns = "id, customer_id, total_amount, status, payment_method, delivery_method, shipping_address, comment, created_at, updated_at"

func scanOrder(row rowScanner) (o models.Order_db, err error) {
	err = row.Scan(&o.Id, &o.CustomerId, &o.TotalAmount, &o.Status, &o.PaymentMethod, &o.DeliveryMethod,
		&o.ShippingAddress, &o.Comment, scanTime(&o.CreatedAt), scanTime(&o.UpdatedAt))
	return
}

func (o *OrderRepo) CreateOrder(ctx context.Context, order models.Order_db) (orderId int, createdAt time.Time, err error) {
	err = o.db.QueryRowContext(ctx,
		`INSERT INTO orders (customer_id, total_amount, status, payment_method, delivery_method, shipping_address, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		order.CustomerId, order.TotalAmount, order.Status, order.PaymentMethod, order.DeliveryMethod,
		string(order.ShippingAddress), order.Comment).Scan(&orderId, scanTime(&createdAt))
	if err != nil {
		slog.Error("CreateOrder", "err", err)
		err = models.ErrServerError
	}
	return
}

// SetOrderItems writes all items of an order in a single statement, so either
// every item is stored or none is.
func (o *OrderRepo) SetOrderItems(ctx context.Context, orderId int, items []models.OrderItem_db) (err error) {
	if len(items) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ")
	params := make([]any, 0, len(items)*4)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		sb.WriteString("($" + strconv.Itoa(n+1) + ", $" + strconv.Itoa(n+2) + ", $" + strconv.Itoa(n+3) + ", $" + strconv.Itoa(n+4) + ")")
		params = append(params, orderId, item.ProductId, item.Quantity, item.Price)
	}

	_, err = o.db.ExecContext(ctx, sb.String(), params...)
	if err != nil {
		slog.Error("SetOrderItems", "order_id", orderId, "err", err)
		err = models.ErrServerError
	}
	return
}

// DeleteOrder removes the order; its items go with it through ON DELETE CASCADE.
func (o *OrderRepo) DeleteOrder(ctx context.Context, orderId int) (err error) {
	res, err := o.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderId)
	if err != nil {
		slog.Error("DeleteOrder", "order_id", orderId, "err", err)
		err = models.ErrServerError
		return
	}
	return affectedOne(res, "DeleteOrder")
}

func (o *OrderRepo) GetOrderById(ctx context.Context, orderId int) (order models.Order_db, exists bool, err error) {
	row := o.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", orderId)
	order, err = scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
		} else {
			slog.Error("GetOrderById", "err", err)
			err = models.ErrServerError
		}
		return
	}
	exists = true
	return
}

func (o *OrderRepo) GetOrderItems(ctx context.Context, orderId int) (items []models.OrderItem_db, err error) {
	rows, e := o.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id", orderId)
	if e != nil {
		slog.Error("GetOrderItems[1]", "err", e)
		err = models.ErrServerError
		return
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem_db
		if e = rows.Scan(&item.Id, &item.OrderId, &item.ProductId, &item.Quantity, &item.Price); e != nil {
			slog.Error("GetOrderItems[2]", "err", e)
			err = models.ErrServerError
			return
		}
		items = append(items, item)
	}
	if e = rows.Err(); e != nil {
		slog.Error("GetOrderItems[3]", "err", e)
		err = models.ErrServerError
	}
	return
}

func (o *OrderRepo) SearchOrders(ctx context.Context, data models.OrderSearchData) (orders []models.Order_db, total int, err error) {
	var conds []string
	var queryParams []any
	var count int

	if data.CustomerId != nil {
		count++
		conds = append(conds, "customer_id = $"+strconv.Itoa(count))
		queryParams = append(queryParams, *data.CustomerId)
	}
	if data.Status != nil {
		count++
		conds = append(conds, "status = $"+strconv.Itoa(count))
		queryParams = append(queryParams, *data.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	err = o.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, queryParams...).Scan(&total)
	if err != nil {
		slog.Error("SearchOrders[1]", "err", err)
		err = models.ErrServerError
		return
	}

	query := "SELECT " + orderColumns + " FROM orders" + where +
		" ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(count+1) + " OFFSET $" + strconv.Itoa(count+2)
	queryParams = append(queryParams, data.Limit, data.Offset)

	rows, e := o.db.QueryContext(ctx, query, queryParams...)
	if e != nil {
		slog.Error("SearchOrders[2]", "err", e)
		err = models.ErrServerError
		return
	}
	defer rows.Close()

	for rows.Next() {
		ord, e := scanOrder(rows)
		if e != nil {
			slog.Error("SearchOrders[3]", "err", e)
			err = models.ErrServerError
			return
		}
		orders = append(orders, ord)
	}
	if e = rows.Err(); e != nil {
		slog.Error("SearchOrders[4]", "err", e)
		err = models.ErrServerError
	}
	return
}
