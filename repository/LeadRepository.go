package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

// LeadRepository stores the inbound forms of the site: contact requests and
// delivery cost requests.
type LeadRepository interface {
	CreateContact(ctx context.Context, c models.Contact_db) (id int, err error)
	SearchContacts(ctx context.Context, data models.LeadSearchData) (contacts []models.Contact_db, total int, err error)
	CreateDeliveryRequest(ctx context.Context, d models.DeliveryRequest_db) (id int, err error)
	SearchDeliveryRequests(ctx context.Context, data models.LeadSearchData) (reqs []models.DeliveryRequest_db, total int, err error)
}

type LeadRepo struct {
	db *sql.DB
}

func NewLeadRepository(conn *sql.DB) (LeadRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &LeadRepo{
		db: conn,
	}, nil
}

func (l *LeadRepo) CreateContact(ctx context.Context, c models.Contact_db) (id int, err error) {
	err = l.db.QueryRowContext(ctx,
		"INSERT INTO contacts (name, phone, email, message, product_model, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		c.Name, c.Phone, c.Email, c.Message, c.ProductModel, c.Status).Scan(&id)
	if err != nil {
		slog.Error("CreateContact", "err", err)
		err = models.ErrServerError
	}
	return
}

func (l *LeadRepo) CreateDeliveryRequest(ctx context.Context, d models.DeliveryRequest_db) (id int, err error) {
	err = l.db.QueryRowContext(ctx,
		"INSERT INTO delivery_requests (city, product_model, phone, estimated_cost, estimated_days, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		d.City, d.ProductModel, d.Phone, d.EstimatedCost, d.EstimatedDays, d.Status).Scan(&id)
	if err != nil {
		slog.Error("CreateDeliveryRequest", "err", err)
		err = models.ErrServerError
	}
	return
}

// leadPage returns the FROM/WHERE part and the paging tail shared by both
// lead lists.
func leadPage(table string, data models.LeadSearchData) (from, tail string, params []any) {
	from = " FROM " + table
	if data.Status != nil {
		from += " WHERE status = $1"
		params = append(params, *data.Status)
	}
	n := len(params)
	tail = " ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	return
}

func (l *LeadRepo) SearchContacts(ctx context.Context, data models.LeadSearchData) (contacts []models.Contact_db, total int, err error) {
	from, tail, params := leadPage("contacts", data)
	if err = l.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, params...).Scan(&total); err != nil {
		slog.Error("SearchContacts[1]", "err", err)
		err = models.ErrServerError
		return
	}

	rows, e := l.db.QueryContext(ctx,
		"SELECT id, name, phone, email, message, product_model, status, created_at"+from+tail,
		append(params, data.Limit, data.Offset)...)
	if e != nil {
		slog.Error("SearchContacts[2]", "err", e)
		err = models.ErrServerError
		return
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Contact_db
		e = rows.Scan(&c.Id, &c.Name, &c.Phone, &c.Email, &c.Message, &c.ProductModel, &c.Status, scanTime(&c.CreatedAt))
		if e != nil {
			slog.Error("SearchContacts[3]", "err", e)
			err = models.ErrServerError
			return
		}
		contacts = append(contacts, c)
	}
	if e = rows.Err(); e != nil {
		slog.Error("SearchContacts[4]", "err", e)
		err = models.ErrServerError
	}
	return
}

func (l *LeadRepo) SearchDeliveryRequests(ctx context.Context, data models.LeadSearchData) (reqs []models.DeliveryRequest_db, total int, err error) {
	from, tail, params := leadPage("delivery_requests", data)
	if err = l.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, params...).Scan(&total); err != nil {
		slog.Error("SearchDeliveryRequests[1]", "err", err)
		err = models.ErrServerError
		return
	}

	rows, e := l.db.QueryContext(ctx,
		"SELECT id, city, product_model, phone, estimated_cost, estimated_days, status, created_at"+from+tail,
		append(params, data.Limit, data.Offset)...)
	if e != nil {
		slog.Error("SearchDeliveryRequests[2]", "err", e)
		err = models.ErrServerError
		return
	}
	defer rows.Close()

	for rows.Next() {
		var d models.DeliveryRequest_db
		e = rows.Scan(&d.Id, &d.City, &d.ProductModel, &d.Phone, &d.EstimatedCost, &d.EstimatedDays, &d.Status, scanTime(&d.CreatedAt))
		if e != nil {
			slog.Error("SearchDeliveryRequests[3]", "err", e)
			err = models.ErrServerError
			return
		}
		reqs = append(reqs, d)
	}
	if e = rows.Err(); e != nil {
		slog.Error("SearchDeliveryRequests[4]", "err", e)
		err = models.ErrServerError
	}
	return
}
