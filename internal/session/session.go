package session

import (
	"context"
	"time"

	"github.com/frahmantamala/expense-client/internal/apiclient"
	"github.com/frahmantamala/expense-client/internal/core/common/validation"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"

	errors "github.com/frahmantamala/expense-client/internal"
)

// Keys under which the session is persisted.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Storage is the durable key/value table behind the session.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// SetAll writes every entry or none of them.
	SetAll(ctx context.Context, entries map[string]string) error
	Clear(ctx context.Context) error
}

// AuthAPI is the part of the remote API the session store calls.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResult, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.AuthResult, error)
}

// Session is the signed-in identity. User and Token are both set or both empty.
type Session struct {
	User  *user.User
	Token string
}

func (s Session) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

// TokenExpiry reads the exp claim without checking the signature; the API
// remains the judge of whether the token is still good.
func (s Session) TokenExpiry() (time.Time, bool) {
	if s.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (s Session) clone() Session {
	return Session{User: s.User.Clone(), Token: s.Token}
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required("Email is required")
	v.Field("password", d.Password).Required("Password is required")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RegisterDTO struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate reports every failing field, each with its first failing rule.
func (d RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).
		Required("Name is required").
		NoDigits("Name cannot contain numbers")
	v.Field("email", d.Email).
		Required("Email is required").
		Email("Please enter a valid email address")
	v.Field("password", d.Password).
		Required("Password is required")
	v.Field("confirm", d.ConfirmPassword).
		Required("Please confirm your password").
		Equals(d.Password, "Passwords do not match")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d RegisterDTO) request() apiclient.RegisterRequest {
	return apiclient.RegisterRequest{
		Name:            d.Name,
		Email:           d.Email,
		Password:        d.Password,
		ConfirmPassword: d.ConfirmPassword,
	}
}

// authFailure turns a failed auth call into the message shown under the form.
func authFailure(err error, fallback string, code errors.ErrorCode) *errors.AppError {
	message := apiclient.RemoteMessage(err)
	if message == "" {
		message = fallback
	}
	return errors.NewAuthError(message, code).WithCause(err)
}
