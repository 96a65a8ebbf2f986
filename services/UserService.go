package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/TARS911/dongfeng-minitraktor-sub001/entities"
	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
	"github.com/TARS911/dongfeng-minitraktor-sub001/repository"
)

type UserService struct {
	ur repository.UserRepository
	sr repository.SessionRepository
}

func NewUserService(uRepo repository.UserRepository, sRepo repository.SessionRepository) UserService {
	return UserService{
		ur: uRepo,
		sr: sRepo,
	}
}

func (us *UserService) SignupRequest(ctx context.Context, creds models.Credentials) (uModel models.User_db, err error) {
	uModel.Nickname = strings.TrimSpace(creds.Username)
	if uModel.Nickname == "" || creds.Password == "" {
		err = models.NewValidationError("username", "Username and password are required")
		return
	}
	if creds.Role == "" {
		creds.Role = models.RoleAdmin
	}
	uModel.Role = creds.Role

	var ex bool
	_, ex, err = us.ur.GetUserByName(ctx, uModel.Nickname)
	if err != nil {
		return
	}
	if ex {
		slog.Info("SignupRequest: user already exists", "user", uModel.Nickname)
		err = &models.ConflictError{Message: "user already exists"}
		return
	}
	uModel.Password, err = us.ur.EncryptPassword(creds.Password)
	if err != nil {
		return
	}
	uModel.Id, err = us.ur.AddNewUser(ctx, uModel)
	return
}

// EnsureAdmin creates the bootstrap admin account unless a user with that
// name exists. Empty credentials are a no-op.
func (us *UserService) EnsureAdmin(ctx context.Context, name, password string) (created bool, err error) {
	if name == "" || password == "" {
		return
	}
	_, err = us.SignupRequest(ctx, models.Credentials{Username: name, Password: password, Role: models.RoleAdmin})
	var ce *models.ConflictError
	if errors.As(err, &ce) {
		err = nil
		return
	}
	created = err == nil
	return
}

func (us *UserService) SigninRequest(ctx context.Context, name, password string) (session entities.Session, err error) {
	uModel, ex, e := us.ur.GetUserByName(ctx, strings.TrimSpace(name))
	if e != nil {
		err = e
		return
	}
	// unknown user and wrong password look the same to the client
	if !ex || !us.ur.VerifyPassword(uModel.Password, password) {
		slog.Info("SigninRequest: invalid credentials", "user", name)
		err = models.ErrUnautorized
		return
	}
	session.Token, session.ExpiresAt, err = us.sr.CreateSession(ctx, uModel.Id, uModel.Role)
	return
}

func (us *UserService) DeleteSessionRequest(ctx context.Context, sessionId string) (err error) {
	if sessionId == "" {
		err = models.ErrUnautorized
		return
	}
	err = us.sr.DeleteSession(ctx, sessionId)
	return
}

// CheckAccess resolves a session token to its user. A missing or unknown
// token is ErrUnautorized, a role other than admin is ErrForbidden.
func (us *UserService) CheckAccess(ctx context.Context, sessionId string) (info entities.SessionInfo, err error) {
	if sessionId == "" {
		err = models.ErrUnautorized
		return
	}
	userId, role, exists, e := us.sr.GetUserSessionInfo(ctx, sessionId)
	if e != nil {
		err = e
		return
	}
	if !exists {
		err = models.ErrUnautorized
		return
	}
	if role != models.RoleAdmin {
		err = models.ErrForbidden
		return
	}
	info = entities.SessionInfo{UserId: userId, Role: role}
	return
}
