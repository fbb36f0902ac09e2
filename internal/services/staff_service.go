// Package services – StaffService
//
// StaffService manages back-office users. Passwords are stored as bcrypt
// hashes and a successful login yields the same credential pair accounts
// get, with the staff role as claim.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/repo"
)

// MinPasswordLen is the shortest accepted staff password.
const MinPasswordLen = 8

// StaffService signs in and creates staff users.
type StaffService struct {
	DB     *gorm.DB
	Tokens *auth.Issuer

	// Cost is the bcrypt work factor.
	Cost int
}

// NewStaffService returns a service using bcrypt.DefaultCost.
func NewStaffService(db *gorm.DB, tokens *auth.Issuer) *StaffService {
	return &StaffService{DB: db, Tokens: tokens, Cost: bcrypt.DefaultCost}
}

// Login checks username and password. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *StaffService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := repo.GetStaffByUsername(ctx, s.DB, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrNotFound) {
		// Burn comparable time so the response does not reveal the miss.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return staffSession(s.Tokens, u)
}

// dummyHash is the bcrypt hash of a throwaway password, computed once.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("metrosite-unknown-user"), bcrypt.DefaultCost)
	return h
})

// Create adds a staff user with role. The visitor role is not a staff role.
func (s *StaffService) Create(ctx context.Context, username, password, role string) (*domain.StaffUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidRequest
	}
	r, err := domain.ParseRole(role)
	if err != nil || !r.IsStaff() {
		return nil, ErrInvalidRole
	}
	if len(password) < MinPasswordLen {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return nil, err
	}
	u, err := repo.CreateStaff(ctx, s.DB, username, string(hash), r)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDuplicateStaff
	}
	return u, err
}

// EnsureAdmin creates the admin user when no staff user has that username.
// An existing user is left untouched.
func (s *StaffService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	_, err := repo.GetStaffByUsername(ctx, s.DB, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	_, err = s.Create(ctx, username, password, string(domain.RoleAdmin))
	if errors.Is(err, ErrDuplicateStaff) {
		return nil
	}
	if err == nil {
		zerolog.Ctx(ctx).Info().Str("username", username).Msg("admin user created")
	}
	return err
}

func (s *StaffService) cost() int {
	if s.Cost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.Cost
}
