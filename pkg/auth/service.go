package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/api"
	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
)

// Service signs users up, in and out, and hands out task service clients
// bound to the stored session.
type Service struct {
	client *api.Client
	store  *Store
	log    *zap.SugaredLogger
}

// NewService builds a Service from an unauthenticated client.
func NewService(client *api.Client, store *Store, log *zap.SugaredLogger) *Service {
	return &Service{client: client, store: store, log: logging.OrNop(log)}
}

// SignUp registers an account. It does not sign in.
func (s *Service) SignUp(ctx context.Context, form SignUpForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := form.Validate(); err != nil {
		return err
	}
	err := s.client.SignUp(ctx, api.SignUpRequest{
		Name:            strings.TrimSpace(form.Name),
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	s.log.Infow("account registered", "email", form.Email)
	return nil
}

// SignIn authenticates, persists the session and returns a client that
// carries it.
func (s *Service) SignIn(ctx context.Context, email, password string) (*api.Client, model.Session, error) {
	email = strings.TrimSpace(email)
	if err := ValidateSignIn(email, password); err != nil {
		return nil, model.Session{}, err
	}
	sess, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, model.Session{}, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, model.Session{}, err
	}
	s.log.Infow("signed in", "userID", sess.UserID, "email", sess.Email)
	return s.client.WithSession(sess), sess, nil
}

// SignOut forgets the stored session.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.log.Infow("signed out")
	return nil
}

// Restore returns a client bound to the stored session. It fails with
// model.ErrAuth when there is no usable session.
func (s *Service) Restore(ctx context.Context) (*api.Client, model.Session, error) {
	sess, ok, err := s.store.Load(ctx)
	if err != nil {
		return nil, model.Session{}, err
	}
	if !ok {
		return nil, model.Session{}, fmt.Errorf("%w: sign in required", model.ErrAuth)
	}
	client := s.client.WithSession(sess)
	if !client.Authenticated() {
		return nil, model.Session{}, fmt.Errorf("%w: session expired, sign in again", model.ErrAuth)
	}
	return client, sess, nil
}
