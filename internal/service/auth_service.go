package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 8

// AuthService registers people and issues login tokens.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (token string, profile *domain.Profile, err error)
	ParseToken(token string) (primitive.ObjectID, error)
}

// authService implements the AuthService interface.
type authService struct {
	profiles      repository.ProfileRepository
	jwtSecret     string
	jwtExpiration time.Duration
	now           Clock
}

// NewAuthService creates a new instance of authService.
func NewAuthService(profiles repository.ProfileRepository, jwtSecret string, jwtExpiration time.Duration, clock Clock) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 24 * time.Hour
	}
	return &authService{
		profiles:      profiles,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           clockOrSystem(clock),
	}
}

// Register creates a profile that has not joined any gym yet.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, invalid("first name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, upstream(ctx, "hash password", err)
	}

	profile := &domain.Profile{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         domain.RoleMember,
		IsActive:     true,
	}
	if _, err := s.profiles.Create(ctx, profile); err != nil {
		// The unique email index settles concurrent registrations.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, upstream(ctx, "create profile", err)
	}
	return profile, nil
}

// Login checks credentials and issues a signed token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	if email == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, upstream(ctx, "load profile", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}
	if !profile.IsActive {
		return "", nil, ErrProfileInactive
	}

	token, err := s.generateJWT(profile)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, profile, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload. Role and tenant are
// deliberately absent; they are resolved from the profile on every request.
type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(profile *domain.Profile) (string, error) {
	now := s.now()
	claims := &jwtClaims{
		UserID: profile.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gym-saas",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a token and returns the profile id it was issued for.
func (s *authService) ParseToken(tokenString string) (primitive.ObjectID, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAuthenticationFailed
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, ErrAuthenticationFailed
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, ErrAuthenticationFailed
	}
	return id, nil
}
