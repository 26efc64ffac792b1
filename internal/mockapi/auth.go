package mockapi

import (
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/core/common/validation"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the fields the mock API signs into a bearer token.
type Claims struct {
	UserID string    `json:"user_id"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks HS256 bearer tokens against the store's accounts.
type Auth struct {
	store      *Store
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuth(store *Store, secret string, ttl time.Duration) *Auth {
	return &Auth{
		store:      store,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// HashPassword creates a bcrypt hash of the password
func (a *Auth) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateAccessToken signs a token for u that expires after the configured ttl.
func (a *Auth) GenerateAccessToken(u *user.User) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   u.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify checks the token's signature and expiry and that its user still exists.
func (a *Auth) Verify(tokenString string) (*user.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewUnauthorizedError("Token expired", errors.ErrCodeTokenExpired)
		}
		return nil, errors.NewUnauthorizedError("Invalid token", errors.ErrCodeInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.NewUnauthorizedError("Invalid token", errors.ErrCodeInvalidToken)
	}

	u, ok := a.store.User(claims.UserID)
	if !ok {
		return nil, errors.NewUnauthorizedError("Invalid token", errors.ErrCodeInvalidToken)
	}
	return u, nil
}

// Authenticate checks email and password and returns a fresh token.
func (a *Auth) Authenticate(email, password string) (string, *user.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, errors.NewValidationError("Email and password are required", errors.ErrCodeRequiredFields)
	}

	u, hash, ok := a.store.credentials(email)
	if !ok {
		return "", nil, errors.NewUnauthorizedError("Invalid email or password", errors.ErrCodeInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, errors.NewUnauthorizedError("Invalid email or password", errors.ErrCodeInvalidCredentials)
	}

	token, err := a.GenerateAccessToken(u)
	if err != nil {
		return "", nil, errors.NewInternalError("failed to sign token", err)
	}
	return token, u, nil
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r RegisterRequest) Validate() error {
	v := validation.NewValidator()
	v.Field("name", r.Name).Required("Name is required")
	v.Field("email", r.Email).Required("Email is required").Email("Invalid email")
	v.Field("password", r.Password).Required("Password is required").MinLength(6, "Password must be at least 6 characters")
	v.Field("confirmPassword", r.ConfirmPassword).Equals(r.Password, "Passwords do not match")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Register creates an employee account and signs it in.
func (a *Auth) Register(req RegisterRequest) (string, *user.User, error) {
	if err := req.Validate(); err != nil {
		return "", nil, err
	}

	hash, err := a.HashPassword(req.Password)
	if err != nil {
		return "", nil, errors.NewInternalError("failed to hash password", err)
	}
	u, err := a.store.CreateUser(req.Name, req.Email, hash, user.RoleEmployee)
	if err != nil {
		return "", nil, err
	}

	token, err := a.GenerateAccessToken(u)
	if err != nil {
		return "", nil, errors.NewInternalError("failed to sign token", err)
	}
	return token, u, nil
}
