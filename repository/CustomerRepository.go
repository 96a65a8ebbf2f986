package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

type CustomerRepository interface {
	UpsertCustomer(ctx context.Context, cust models.Customer_db) (customerId int, err error)
	GetCustomerById(ctx context.Context, id int) (cust models.Customer_db, exists bool, err error)
	GetCustomerByEmail(ctx context.Context, email string) (cust models.Customer_db, exists bool, err error)
}

type CustomerRepo struct {
	db *sql.DB
}

func NewCustomerRepository(conn *sql.DB) (CustomerRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &CustomerRepo{
		db: conn,
	}, nil
}

// UpsertCustomer creates the customer or, when the e-mail is already known,
// refreshes its name and phone. One statement, so concurrent orders from the
// same address end up on a single row.
func (c *CustomerRepo) UpsertCustomer(ctx context.Context, cust models.Customer_db) (customerId int, err error) {
	err = c.db.QueryRowContext(ctx,
		`INSERT INTO customers (first_name, last_name, email, phone) VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		cust.FirstName, cust.LastName, cust.Email, cust.Phone).Scan(&customerId)
	if err != nil {
		slog.Error("UpsertCustomer", "err", err)
		err = models.ErrServerError
	}
	return
}

func (c *CustomerRepo) getCustomer(ctx context.Context, op, where string, arg any) (cust models.Customer_db, exists bool, err error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email, phone, created_at, updated_at FROM customers WHERE "+where, arg)
	err = row.Scan(&cust.Id, &cust.FirstName, &cust.LastName, &cust.Email, &cust.Phone,
		scanTime(&cust.CreatedAt), scanTime(&cust.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
		} else {
			slog.Error(op, "err", err)
			err = models.ErrServerError
		}
		return
	}
	exists = true
	return
}

func (c *CustomerRepo) GetCustomerById(ctx context.Context, id int) (models.Customer_db, bool, error) {
	return c.getCustomer(ctx, "GetCustomerById", "id = $1", id)
}

func (c *CustomerRepo) GetCustomerByEmail(ctx context.Context, email string) (models.Customer_db, bool, error) {
	return c.getCustomer(ctx, "GetCustomerByEmail", "email = $1", email)
}
