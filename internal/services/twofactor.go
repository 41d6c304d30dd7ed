package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

const defaultCodeTTL = 10 * time.Minute

// TwoFactorRepository stores one pending code per email.
type TwoFactorRepository interface {
	Save(ctx context.Context, code store.TwoFactorCode) error
	Get(ctx context.Context, email string) (store.TwoFactorCode, error)
	Delete(ctx context.Context, email string) error
}

// CodeSender delivers a verification code to the user.
type CodeSender interface {
	Send(ctx context.Context, user types.User, code string) error
}

// LogCodeSender writes codes to the server log. It stands in for an
// email service on development servers.
type LogCodeSender struct {
	Log zerolog.Logger
}

func (s LogCodeSender) Send(_ context.Context, user types.User, code string) error {
	s.Log.Info().Str("email", user.Email).Str("code", code).Msg("two-factor code issued")
	return nil
}

type TwoFactorService struct {
	repo   TwoFactorRepository
	sender CodeSender
	ttl    time.Duration
	now    func() time.Time
}

func NewTwoFactorService(repo TwoFactorRepository, sender CodeSender) *TwoFactorService {
	return &TwoFactorService{repo: repo, sender: sender, ttl: defaultCodeTTL, now: time.Now}
}

// Issue replaces any pending code of user with a fresh six-digit one.
func (s *TwoFactorService) Issue(ctx context.Context, user types.User) error {
	code, err := randomCode()
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, store.TwoFactorCode{
		Email:     user.Email,
		CodeHash:  string(hashed),
		ExpiresAt: s.now().Add(s.ttl),
	}); err != nil {
		return err
	}
	if err := s.sender.Send(ctx, user, code); err != nil {
		return fmt.Errorf("send two-factor code: %w", err)
	}
	return nil
}

// Verify consumes the pending code of email when it matches. A wrong
// code leaves the pending one in place so the user can retry.
func (s *TwoFactorService) Verify(ctx context.Context, email, code string) error {
	pending, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if s.now().After(pending.ExpiresAt) {
		_ = s.repo.Delete(ctx, email)
		return ErrInvalidCode
	}
	if err := bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(code)); err != nil {
		return ErrInvalidCode
	}
	return s.repo.Delete(ctx, email)
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
