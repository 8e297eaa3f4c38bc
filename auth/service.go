package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrForbidden signals the caller may not register officials.
	ErrForbidden = errors.New("auth: only the barangay captain may register officials")
	// ErrInvalidToken signals a token that failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrInvalidRegistration wraps rejected registration fields.
	ErrInvalidRegistration = errors.New("auth: invalid registration")
)

const tokenTTL = 12 * time.Hour

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	now       func() time.Time
}

// LoginResult bundles the token and official returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Official  Official
}

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a new official. Only a captain may register officials,
// except for the very first account, which becomes the captain.
func (s *Service) Register(ctx context.Context, req RegisterRequest, by Role) (*Official, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.FullName == "" {
		return nil, fmt.Errorf("%w: email and full_name are required", ErrInvalidRegistration)
	}

	role := Role(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if role == "" {
		role = RoleSecretary
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRegistration, role)
	}

	if by != RoleCaptain {
		n, err := s.repo.CountOfficials(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrForbidden
		}
		role = RoleCaptain
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	o, err := s.repo.CreateOfficial(ctx, CreateOfficialParams{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Login authenticates an official and returns a signed JWT.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	o, err := s.repo.GetOfficialByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, ErrOfficialNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := s.generateToken(o.ID, o.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: exp, Official: o}, nil
}

// GetOfficialByID retrieves official information by ID.
func (s *Service) GetOfficialByID(ctx context.Context, id string) (*Official, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOfficialNotFound
	}
	o, err := s.repo.GetOfficialByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// VerifyToken validates a JWT and returns the official id and role.
func (s *Service) VerifyToken(tokenString string) (string, Role, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || c.Subject == "" {
		return "", "", ErrInvalidToken
	}
	if !c.Role.Valid() {
		return "", "", fmt.Errorf("%w: role %q", ErrInvalidToken, c.Role)
	}
	return c.Subject, c.Role, nil
}

func (s *Service) generateToken(officialID string, role Role) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   officialID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleCaptain, RoleSecretary, RoleLupon:
		return true
	default:
		return false
	}
}
