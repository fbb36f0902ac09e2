// Package services – AuthService
//
// AuthService is the OTP login broker. A code request validates the phone
// against the account table, delivers a six digit code by SMS and only then
// parks the pending verification in the expiring store. Verification takes
// the entry atomically, so a code is redeemable exactly once, and answers
// with a signed credential pair.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/observability"
	"github.com/tbourn/metrosite-backend/internal/otpstore"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/sms"
	"github.com/tbourn/metrosite-backend/internal/utils"
)

// VerificationStore is the expiring store behind pending codes.
type VerificationStore interface {
	// Put parks pv under code for ttl, or fails with otpstore.ErrExists.
	Put(ctx context.Context, code string, pv *domain.PendingVerification, ttl time.Duration) error
	// Exists reports whether a live entry holds code.
	Exists(ctx context.Context, code string) (bool, error)
	// Take removes and returns the entry, or fails with otpstore.ErrNotFound.
	Take(ctx context.Context, code string, now time.Time) (*domain.PendingVerification, error)
}

// Session is the result of a successful sign-in. Exactly one of Account and
// Staff is set.
type Session struct {
	Access          string
	Refresh         string
	AccessExpiresAt time.Time
	Account         *domain.Account
	Staff           *domain.StaffUser
}

// codeAttempts bounds regeneration when a fresh code collides with a live one.
const codeAttempts = 5

// AuthService issues and redeems one-time codes.
type AuthService struct {
	DB     *gorm.DB
	Store  VerificationStore
	Sender sms.Sender
	Tokens *auth.Issuer

	// CodeTTL is how long an issued code stays redeemable.
	CodeTTL time.Duration
	// SendTimeout bounds one SMS dispatch.
	SendTimeout time.Duration
	// MessagePrefix precedes the code in the SMS text.
	MessagePrefix string

	Now     func() time.Time
	NewCode func() (string, error)
}

// NewAuthService wires an AuthService with the default clock and code source.
func NewAuthService(db *gorm.DB, store VerificationStore, sender sms.Sender, tokens *auth.Issuer) *AuthService {
	return &AuthService{
		DB:            db,
		Store:         store,
		Sender:        sender,
		Tokens:        tokens,
		CodeTTL:       5 * time.Minute,
		SendTimeout:   10 * time.Second,
		MessagePrefix: "Metro: tasdiqlash kodingiz",
		Now:           time.Now,
		NewCode:       randomCode,
	}
}

// randomCode returns six uniformly random decimal digits.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Request issues a code for phone. register requires an unknown phone and a
// first name; login requires a verified account. The code is delivered
// before it is stored, so a failed delivery leaves nothing behind.
//
// The code is returned for in-process callers; the HTTP layer never echoes it.
func (s *AuthService) Request(ctx context.Context, phone string, action domain.OTPAction, firstName, lastName string) (string, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Request", trace.WithAttributes(attribute.String("otp.action", string(action))))
	defer span.End()

	code, err := s.request(ctx, phone, action, firstName, lastName)
	result := "issued"
	switch {
	case err == nil:
	case errors.Is(err, ErrDeliveryFailed):
		result = "delivery_failed"
	case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrAccountNotFound):
		result = "rejected"
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrInvalidAction), errors.Is(err, ErrNameRequired):
		result = "invalid"
	default:
		result = "error"
	}
	label := string(action)
	if !action.Valid() {
		label = "unknown"
	}
	observability.OTPRequests.WithLabelValues(label, result).Inc()
	return code, err
}

func (s *AuthService) request(ctx context.Context, rawPhone string, action domain.OTPAction, firstName, lastName string) (string, error) {
	phone, ok := utils.NormalizePhone(rawPhone)
	if !ok {
		return "", ErrInvalidPhone
	}
	if !action.Valid() {
		return "", ErrInvalidAction
	}
	firstName = normalizeTitle(firstName)
	lastName = normalizeTitle(lastName)

	acc, err := repo.GetAccountByPhone(ctx, s.DB, phone)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}
	verified := err == nil && acc.Verified

	switch action {
	case domain.OTPRegister:
		if verified {
			return "", ErrAlreadyRegistered
		}
		if firstName == "" {
			return "", ErrNameRequired
		}
	case domain.OTPLogin:
		if !verified {
			return "", ErrAccountNotFound
		}
		firstName, lastName = "", ""
	}

	now := s.now()
	pv := &domain.PendingVerification{
		Phone:     phone,
		Action:    action,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}

	log := zerolog.Ctx(ctx)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := s.NewCode()
		if err != nil {
			return "", err
		}
		taken, err := s.Store.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}

		if err := sms.SendWithTimeout(ctx, s.Sender, s.SendTimeout, phone, sms.CodeMessage(s.MessagePrefix, code)); err != nil {
			log.Warn().Err(err).Str("action", string(action)).Msg("otp delivery failed")
			return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}

		err = s.Store.Put(ctx, code, pv, s.ttl())
		if errors.Is(err, otpstore.ErrExists) {
			// The delivered code is unusable; the next one supersedes it.
			log.Debug().Int("attempt", attempt+1).Msg("otp code collision")
			continue
		}
		if err != nil {
			return "", err
		}
		log.Info().
			Str("phone", sms.MaskPhone(phone)).
			Str("action", string(action)).
			Time("expires_at", pv.ExpiresAt).
			Msg("otp issued")
		return code, nil
	}
	return "", fmt.Errorf("no free verification code after %d attempts", codeAttempts)
}

// Verify redeems code. Unknown, expired and already used codes are all
// reported as ErrInvalidOrExpiredCode.
func (s *AuthService) Verify(ctx context.Context, code string) (*Session, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Verify")
	defer span.End()

	sess, err := s.verify(ctx, strings.TrimSpace(code))
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidOrExpiredCode):
		result = "invalid"
	default:
		result = "error"
	}
	observability.OTPVerifications.WithLabelValues(result).Inc()
	return sess, err
}

func (s *AuthService) verify(ctx context.Context, code string) (*Session, error) {
	if code == "" {
		return nil, ErrInvalidOrExpiredCode
	}
	pv, err := s.Store.Take(ctx, code, s.now())
	if errors.Is(err, otpstore.ErrNotFound) {
		return nil, ErrInvalidOrExpiredCode
	}
	if err != nil {
		return nil, err
	}

	var acc *domain.Account
	switch pv.Action {
	case domain.OTPRegister:
		acc, err = repo.UpsertVerifiedAccount(ctx, s.DB, pv.Phone, pv.FirstName, pv.LastName)
		if err != nil {
			return nil, err
		}
	case domain.OTPLogin:
		acc, err = repo.GetAccountByPhone(ctx, s.DB, pv.Phone)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidOrExpiredCode
		}
		if err != nil {
			return nil, err
		}
		if !acc.Verified {
			return nil, ErrInvalidOrExpiredCode
		}
	default:
		return nil, ErrInvalidOrExpiredCode
	}

	zerolog.Ctx(ctx).Info().
		Str("phone", sms.MaskPhone(acc.Phone)).
		Str("action", string(pv.Action)).
		Msg("otp verified")
	return s.accountSession(acc)
}

// Refresh exchanges a refresh token for a new pair. The principal is
// reloaded so that a deleted account or a changed staff role takes effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	p, err := s.Tokens.Parse(strings.TrimSpace(refreshToken), auth.TypeRefresh)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	if p.IsAccount() {
		acc, err := repo.GetAccount(ctx, s.DB, p.Subject)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		if err != nil {
			return nil, err
		}
		if !acc.Verified {
			return nil, ErrInvalidCredential
		}
		return s.accountSession(acc)
	}
	st, err := repo.GetStaff(ctx, s.DB, p.Subject)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	return staffSession(s.Tokens, st)
}

// Profile loads the account or staff user behind an authenticated principal.
// A principal whose row is gone yields ErrInvalidCredential.
func (s *AuthService) Profile(ctx context.Context, p auth.Principal) (*domain.Account, *domain.StaffUser, error) {
	if p.IsAccount() {
		acc, err := repo.GetAccount(ctx, s.DB, p.Subject)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return acc, nil, err
	}
	st, err := repo.GetStaff(ctx, s.DB, p.Subject)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, ErrInvalidCredential
	}
	return nil, st, err
}

func (s *AuthService) accountSession(acc *domain.Account) (*Session, error) {
	pair, err := s.Tokens.Issue(auth.Principal{
		Subject: acc.ID,
		Kind:    auth.KindAccount,
		Role:    domain.RoleVisitor,
		Phone:   acc.Phone,
	})
	if err != nil {
		return nil, err
	}
	return &Session{Access: pair.Access, Refresh: pair.Refresh, AccessExpiresAt: pair.AccessExpiresAt, Account: acc}, nil
}

func staffSession(tokens *auth.Issuer, st *domain.StaffUser) (*Session, error) {
	pair, err := tokens.Issue(auth.Principal{Subject: st.ID, Kind: auth.KindStaff, Role: st.Role})
	if err != nil {
		return nil, err
	}
	return &Session{Access: pair.Access, Refresh: pair.Refresh, AccessExpiresAt: pair.AccessExpiresAt, Staff: st}, nil
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *AuthService) ttl() time.Duration {
	if s.CodeTTL <= 0 {
		return 5 * time.Minute
	}
	return s.CodeTTL
}
