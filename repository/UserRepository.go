package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository holds the admin accounts allowed to sign in.
type UserRepository interface {
	GetUserByName(ctx context.Context, name string) (models.User_db, bool, error)
	EncryptPassword(userPass string) (hashedPassword string, err error)
	VerifyPassword(hashedPassword string, sentPassword string) bool
	AddNewUser(ctx context.Context, uModel models.User_db) (newUserId int, err error)
}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepository(conn *sql.DB) (UserRepository, error) {
	if conn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := conn.Ping()
	if err != nil {
		return nil, err
	}
	return &UserRepo{
		db: conn,
	}, nil
}

func (u *UserRepo) GetUserByName(ctx context.Context, name string) (uModel models.User_db, exists bool, err error) {
	row := u.db.QueryRowContext(ctx, "SELECT id, nickname, password, role FROM users WHERE nickname = $1", name)
	err = row.Scan(&uModel.Id, &uModel.Nickname, &uModel.Password, &uModel.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
			return
		}
		slog.Error("GetUserByName", "err", err)
		err = models.ErrServerError
		return
	}
	exists = true
	return
}

func (u *UserRepo) EncryptPassword(userPass string) (hashedPassword string, err error) {
	var password []byte
	password, err = bcrypt.GenerateFromPassword([]byte(userPass), 8)
	if err != nil {
		slog.Error("EncryptPassword", "err", err)
		err = models.ErrServerError
		return
	}
	hashedPassword = string(password)
	return
}

func (u *UserRepo) VerifyPassword(hashedPassword string, sentPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(sentPassword))
	if err != nil {
		slog.Debug("VerifyPassword", "err", err)
	}
	return err == nil
}

func (u *UserRepo) AddNewUser(ctx context.Context, uModel models.User_db) (newUserId int, err error) {
	err = u.db.QueryRowContext(ctx, "INSERT INTO users (nickname, password, role) VALUES ($1, $2, $3) RETURNING id",
		uModel.Nickname, uModel.Password, uModel.Role).Scan(&newUserId)
	if err != nil {
		if isUniqueViolation(err) {
			err = &models.ConflictError{Message: "user already exists"}
			return
		}
		slog.Error("AddNewUser", "err", err)
		err = models.ErrServerError
	}
	return
}
