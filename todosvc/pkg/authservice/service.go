package authservice

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log"
	"github.com/hisakawa/todolist/todosvc"
	"github.com/hisakawa/todolist/todosvc/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the credential pair issued on login.
type TokenPair struct {
	Access  string
	Refresh string
}

type Service interface {
	Register(ctx context.Context, name, email, password string) (todosvc.User, error)
	Login(ctx context.Context, email, password string) (TokenPair, error)
	Logout(ctx context.Context, rawToken string) (bool, error)
	Refresh(ctx context.Context, rawToken string) (string, error)
}

func New(users todosvc.UserRepository, blacklist todosvc.BlacklistRepository, tokens *token.Service, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, blacklist, tokens)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users     todosvc.UserRepository
	blacklist todosvc.BlacklistRepository
	tokens    *token.Service
}

func NewBasicService(users todosvc.UserRepository, blacklist todosvc.BlacklistRepository, tokens *token.Service) Service {
	return &basicService{users: users, blacklist: blacklist, tokens: tokens}
}

func (s *basicService) Register(_ context.Context, name, email, password string) (todosvc.User, error) {
	if name == "" || email == "" || password == "" {
		return todosvc.User{}, todosvc.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return todosvc.User{}, err
	}

	return s.users.Create(name, email, string(hash))
}

func (s *basicService) Login(_ context.Context, email, password string) (TokenPair, error) {
	if email == "" || password == "" {
		return TokenPair{}, todosvc.ErrInvalidArgument
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, todosvc.ErrUserNotFound) {
			return TokenPair{}, todosvc.ErrUnauthorized
		}
		return TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return TokenPair{}, todosvc.ErrUnauthorized
	}

	access, err := s.tokens.IssueAccess(user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(user.Email)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *basicService) Logout(_ context.Context, rawToken string) (bool, error) {
	if rawToken == "" {
		return false, todosvc.ErrInvalidArgument
	}

	if err := s.blacklist.Add(rawToken); err != nil {
		return false, err
	}

	return true, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token goes through the same verification as any other, blacklist included.
func (s *basicService) Refresh(_ context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", todosvc.ErrUnauthorized
	}

	claims, err := s.tokens.Verify(rawToken, token.TypeRefresh, s.blacklist)
	if err != nil {
		var terr *token.Error
		if errors.As(err, &terr) {
			return "", todosvc.ErrUnauthorized
		}
		return "", err
	}

	if _, err := s.users.FindByEmail(claims.Subject); err != nil {
		if errors.Is(err, todosvc.ErrUserNotFound) {
			return "", todosvc.ErrUnauthorized
		}
		return "", err
	}

	return s.tokens.IssueAccess(claims.Subject)
}
