package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
	}
}

// RegisterUser registers a new customer, hashes their password, and saves them to the database.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	if existingUser, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil && existingUser != nil {
		return apperr.Newf(apperr.Conflict, "username '%s' already taken", user.Username)
	}
	if existingUser, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existingUser != nil {
		return apperr.Newf(apperr.Conflict, "email '%s' already registered", user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}
	user.Password = string(hashedPassword)
	// Self registration never grants admin.
	user.Role = models.RoleCustomer

	return s.userRepo.Create(ctx, user)
}

// EnsureAdmin creates an admin account when no user holds the admin role yet. It reports
// whether an account was created. A username already taken by a customer is a Conflict.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if username == "" || password == "" {
		return false, apperr.New(apperr.InvalidInput, "admin username and password are required")
	}
	exists, err := s.userRepo.HasRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if user, err := s.userRepo.GetByUsername(ctx, username); err == nil && user != nil {
		return false, apperr.Newf(apperr.Conflict, "username '%s' already taken", username)
	}

	if email == "" {
		email = username + "@localhost"
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}
	admin := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.StoreTimeout) {
			return "", err
		}
		return "", apperr.New(apperr.InvalidCredential, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperr.New(apperr.InvalidCredential, "invalid credentials")
	}
	return s.IssueToken(user)
}

// IssueToken signs an HS256 token carrying the user's id, name and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to generate token", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ResolveIdentity turns an Authorization header value into the caller's identity.
// An empty header is Unauthenticated; anything that does not verify is InvalidCredential.
func (s *AuthService) ResolveIdentity(authHeader string) (Identity, error) {
	tokenString, err := ParseBearer(authHeader)
	if err != nil {
		return Identity{}, err
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.InvalidCredential, "invalid or expired token", err)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return Identity{}, apperr.New(apperr.InvalidCredential, "token does not identify a user")
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleCustomer
	}
	return Identity{UserID: userID, Username: username, Role: role}, nil
}

// ParseBearer extracts the token from a "Bearer <token>" header value.
func ParseBearer(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", apperr.New(apperr.Unauthenticated, "authorization header is required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", apperr.New(apperr.InvalidCredential, "authorization header format must be 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), nil
}
