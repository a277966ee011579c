package auth

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"Username": "Username is required.",
	"Password": "Password is required.",
}

// Service runs the sign-in flow: validate the form, authenticate, then log the session in.
type Service struct {
	backend  Backend
	session  *Session
	validate *validator.Validate
	logg     *logger.Logger
}

func NewService(backend Backend, session *Session, logg *logger.Logger) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("auth backend required")
	}
	if session == nil {
		return nil, fmt.Errorf("session required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		backend:  backend,
		session:  session,
		validate: validator.New(),
		logg:     logg,
	}, nil
}

// SignIn authenticates req and replaces the current session on success.
func (s *Service) SignIn(ctx context.Context, req LoginRequest) (Snapshot, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return Snapshot{}, loginValidationError(err)
	}

	user, token, err := s.backend.Login(ctx, req.Username, req.Password)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
			s.logg.Warn(s.logg.WithField(ctx, "username", req.Username), "session.login_rejected")
		}
		return Snapshot{}, err
	}
	if err := s.session.Login(ctx, *user, token); err != nil {
		return Snapshot{}, err
	}
	return s.session.Current(), nil
}

// SignOut logs the session out and empties the cart.
func (s *Service) SignOut(ctx context.Context) Snapshot {
	s.session.Logout(ctx)
	return s.session.Current()
}

func loginValidationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	first := ""
	for _, fe := range fieldErrs {
		msg, ok := loginMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		details[strings.ToLower(fe.Field())] = msg
		if first == "" {
			first = msg
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, first).WithDetails(details)
}
