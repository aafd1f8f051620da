package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// CredentialStore is the persistence the service needs; *repo.UserRepo satisfies it.
type CredentialStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// TokenIssuer is the issuing half of auth.Signer.
type TokenIssuer interface {
	Issue(id auth.Identity, kind auth.Kind, ttl time.Duration) (string, error)
}

// UserService orchestrates registration and password login.
type UserService struct {
	repo   CredentialStore
	hasher PasswordHasher
	tokens TokenIssuer
	newID  func() string
	now    func() time.Time
	// configuration knobs
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(r CredentialStore, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{
		repo:       r,
		hasher:     hasher,
		tokens:     tokens,
		newID:      utilities.NewKSUID,
		now:        time.Now,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// bcrypt ignores everything past 72 bytes; refuse instead of silently truncating.
const maxPasswordBytes = 72

// Register creates a user with a hashed password. A taken email fails with
// ErrDuplicateEmail and leaves the existing record untouched.
func (s *UserService) Register(ctx context.Context, name, email, password, country string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	country = strings.TrimSpace(country)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case email == "":
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	case country == "":
		return nil, fmt.Errorf("%w: country is required", ErrValidation)
	case len(password) > maxPasswordBytes:
		return nil, fmt.Errorf("%w: password is too long", ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is malformed", ErrValidation)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PasswordAlgo: algo,
		Country:      country,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// LoginResult is returned by a successful Authenticate.
type LoginResult struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         entity.Summary `json:"user"`
}

// Authenticate checks email and password and issues an access/refresh token
// pair. Unknown email and wrong password both return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// burn the same bcrypt time as a real comparison to avoid user enumeration
			s.hasher.Verify(s.dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	id := auth.Identity{UserID: u.ID, Email: u.Email}
	access, err := s.tokens.Issue(id, auth.KindAccess, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(id, auth.KindRefresh, s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: u.Summary()}, nil
}

// Profile returns the public summary of a user by ID.
func (s *UserService) Profile(ctx context.Context, id string) (*entity.Summary, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	sum := u.Summary()
	return &sum, nil
}

// fallbackDummyHash is a cost-10 bcrypt hash of an unknown password, used
// when the configured hasher cannot produce a dummy of its own.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, _, err := s.hasher.Hash(utilities.NewKSUID())
		if err != nil || h == "" {
			h = fallbackDummyHash
		}
		s.dummy = h
	})
	return s.dummy
}
