package session_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/apiclient"
	sessionDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/session"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/core/events"
	"github.com/frahmantamala/expense-client/internal/session"
	"github.com/frahmantamala/expense-client/internal/session/sqlite"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

type fakeAuthAPI struct {
	result   *apiclient.AuthResult
	err      error
	calls    int
	lastReg  apiclient.RegisterRequest
	lastUser string
}

func (f *fakeAuthAPI) Login(_ context.Context, email, _ string) (*apiclient.AuthResult, error) {
	f.calls++
	f.lastUser = email
	return f.result, f.err
}

func (f *fakeAuthAPI) Register(_ context.Context, req apiclient.RegisterRequest) (*apiclient.AuthResult, error) {
	f.calls++
	f.lastReg = req
	return f.result, f.err
}

// failWritesOf makes every insert of key into db fail.
func failWritesOf(db *gorm.DB, key string) {
	Expect(db.Callback().Create().Before("gorm:create").Register("test:fail_"+key, func(tx *gorm.DB) {
		if e, ok := tx.Statement.Dest.(*sessionDatamodel.Entry); ok && e.Key == key {
			_ = tx.AddError(errors.New("disk full"))
		}
	})).To(Succeed())
}

// stuckStorage cannot be cleared.
type stuckStorage struct {
	session.Storage
	clears int
}

func (s *stuckStorage) Clear(context.Context) error {
	s.clears++
	return errors.New("database is locked")
}

var admin = &user.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", Role: user.RoleAdmin}

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		repo    *sqlite.SessionRepository
		api     *fakeAuthAPI
		bus     *events.EventBus
		store   *session.Store
		mu      sync.Mutex
		emitted []string
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = sqlite.Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlite.Migrate(ctx, db)).To(Succeed())
		repo = sqlite.NewSessionRepository(db)

		api = &fakeAuthAPI{result: &apiclient.AuthResult{Token: "tok-1", User: admin}}

		bus = events.NewEventBus(logger.Discard())
		emitted = nil
		for _, eventType := range events.SessionEventTypes {
			bus.Subscribe(eventType, func(_ context.Context, e events.Event) error {
				mu.Lock()
				defer mu.Unlock()
				emitted = append(emitted, e.EventType())
				return nil
			})
		}

		store, err = session.Open(ctx, repo, api, bus, logger.Discard())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	Describe("Login", func() {
		It("persists user and token and replaces the session", func() {
			s, err := store.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Authenticated()).To(BeTrue())
			Expect(store.Token()).To(Equal("tok-1"))
			Expect(store.Current().User).To(Equal(admin))

			token, ok, err := repo.Get(ctx, session.KeyToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(token).To(Equal("tok-1"))

			rawUser, ok, err := repo.Get(ctx, session.KeyUser)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(rawUser).To(MatchJSON(`{"id":"u-1","name":"Ada","email":"ada@example.com","role":"ADMIN"}`))

			Expect(emitted).To(Equal([]string{events.EventTypeLoggedIn}))
		})

		It("hands out copies of the user", func() {
			_, err := store.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			s := store.Current()
			s.User.Role = user.RoleEmployee
			Expect(store.Current().User.Role).To(Equal(user.RoleAdmin))
		})

		It("surfaces the API's error message and leaves the session alone", func() {
			api.err = &apiclient.ResponseError{StatusCode: 401, Message: "Invalid credentials"}

			_, err := store.Login(ctx, "ada@example.com", "wrong")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(appErrors.ErrorTypeAuth))
			Expect(appErr.DisplayMessage()).To(Equal("Invalid credentials"))
			Expect(store.Current().Authenticated()).To(BeFalse())
			Expect(emitted).To(BeEmpty())
		})

		It("falls back to a generic message when the response has none", func() {
			api.err = &apiclient.ResponseError{StatusCode: 500}

			_, err := store.Login(ctx, "ada@example.com", "secret")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.DisplayMessage()).To(Equal("Login failed"))
		})

		It("does not call the API when a field is empty", func() {
			_, err := store.Login(ctx, "", "secret")
			Expect(appErrors.IsType(err, appErrors.ErrorTypeValidation)).To(BeTrue())
			Expect(api.calls).To(Equal(0))
		})

		It("keeps the previous pair in memory and storage when persisting fails halfway", func() {
			_, err := store.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			bob := &user.User{ID: "u-2", Name: "Bob", Email: "bob@example.com", Role: user.RoleEmployee}
			api.result = &apiclient.AuthResult{Token: "tok-bob", User: bob}
			failWritesOf(db, session.KeyUser)

			_, err = store.Login(ctx, "bob@example.com", "secret")
			Expect(err).To(HaveOccurred())
			Expect(store.Token()).To(Equal("tok-1"))
			Expect(store.Current().User).To(Equal(admin))

			reopened, err := session.Open(ctx, repo, api, nil, logger.Discard())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.Current().User).To(Equal(admin))
			Expect(reopened.Token()).To(Equal("tok-1"))
		})
	})

	Describe("Register", func() {
		It("reports every invalid field without touching the network", func() {
			_, err := store.Register(ctx, "R2D2", "not-an-email", "", "x")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(Equal(map[string]string{
				"name":     "Name cannot contain numbers",
				"email":    "Please enter a valid email address",
				"password": "Password is required",
				"confirm":  "Passwords do not match",
			}))
			Expect(api.calls).To(Equal(0))
		})

		It("requires the confirmation to match", func() {
			_, err := store.Register(ctx, "Ada", "ada@example.com", "secret", "secreT")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKeyWithValue("confirm", "Passwords do not match"))
		})

		It("signs in on success and sends the confirmation along", func() {
			employee := &user.User{ID: "u-2", Name: "Bob", Email: "bob@example.com", Role: user.RoleEmployee}
			api.result = &apiclient.AuthResult{Token: "tok-3", User: employee}

			s, err := store.Register(ctx, "Bob", "bob@example.com", "secret", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.User.Role).To(Equal(user.RoleEmployee))
			Expect(api.lastReg.ConfirmPassword).To(Equal("secret"))
			Expect(emitted).To(Equal([]string{events.EventTypeRegistered}))
		})

		It("falls back to a generic message", func() {
			api.err = errors.New("connection refused")
			_, err := store.Register(ctx, "Bob", "bob@example.com", "secret", "secret")
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.DisplayMessage()).To(Equal("Registration failed"))
		})
	})

	Describe("Logout", func() {
		It("empties the session and leaves no keys in storage", func() {
			_, err := store.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Logout(ctx)).To(Succeed())

			current := store.Current()
			Expect(current.User).To(BeNil())
			Expect(current.Token).To(BeEmpty())

			keys, err := repo.Keys(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(BeEmpty())
			Expect(api.calls).To(Equal(1))
		})

		It("stays signed in when storage cannot be cleared", func() {
			_, err := store.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())
			emitted = nil

			stuck := &stuckStorage{Storage: repo}
			locked, err := session.Open(ctx, stuck, api, bus, logger.Discard())
			Expect(err).NotTo(HaveOccurred())

			err = locked.Logout(ctx)
			Expect(err).To(MatchError(ContainSubstring("still signed in")))
			Expect(stuck.clears).To(Equal(2))
			Expect(locked.Current().Authenticated()).To(BeTrue())
			Expect(emitted).To(BeEmpty())

			reopened, err := session.Open(ctx, repo, api, nil, logger.Discard())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.Token()).To(Equal("tok-1"))
		})

		It("is idempotent", func() {
			Expect(store.Logout(ctx)).To(Succeed())
			Expect(store.Logout(ctx)).To(Succeed())
			Expect(store.Current().Authenticated()).To(BeFalse())
		})
	})

	Describe("Init", func() {
		It("restores a persisted session", func() {
			_, err := store.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			reopened, err := session.Open(ctx, repo, api, nil, logger.Discard())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.Current().User).To(Equal(admin))
			Expect(reopened.Token()).To(Equal("tok-1"))
		})

		It("treats a user without a token as signed out", func() {
			Expect(repo.Set(ctx, session.KeyUser, `{"id":"u-1","name":"Ada","email":"ada@example.com","role":"ADMIN"}`)).To(Succeed())

			reopened, err := session.Open(ctx, repo, api, nil, logger.Discard())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.Current().Authenticated()).To(BeFalse())
			Expect(reopened.Current().User).To(BeNil())
		})

		It("treats an unreadable user as signed out", func() {
			Expect(repo.Set(ctx, session.KeyUser, `{"role":"OWNER"}`)).To(Succeed())
			Expect(repo.Set(ctx, session.KeyToken, "tok")).To(Succeed())

			reopened, err := session.Open(ctx, repo, api, nil, logger.Discard())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.Current().Authenticated()).To(BeFalse())
		})
	})
})

var _ = Describe("Session", func() {
	It("reads the expiry claim of a JWT without verifying it", func() {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("some-other-secret"))
		Expect(err).NotTo(HaveOccurred())

		got, ok := session.Session{User: admin, Token: token}.TokenExpiry()
		Expect(ok).To(BeTrue())
		Expect(got.Equal(exp)).To(BeTrue())
	})

	It("has no expiry for opaque tokens", func() {
		_, ok := session.Session{User: admin, Token: "opaque"}.TokenExpiry()
		Expect(ok).To(BeFalse())
	})
})
