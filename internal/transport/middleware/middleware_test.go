package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/transport"
	"github.com/frahmantamala/expense-client/internal/transport/middleware"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

var (
	adminUser    = &user.User{ID: "1", Name: "Ada", Role: user.RoleAdmin}
	employeeUser = &user.User{ID: "2", Name: "Eve", Role: user.RoleEmployee}
)

func verify(token string) (*user.User, error) {
	switch token {
	case "admin":
		return adminUser, nil
	case "employee":
		return employeeUser, nil
	}
	return nil, appErrors.NewUnauthorizedError("Invalid token", appErrors.ErrCodeInvalidToken)
}

func whoami(w http.ResponseWriter, r *http.Request) {
	u, _ := appErrors.UserFromContext(r.Context())
	_, _ = w.Write([]byte(u.Name))
}

func decodeError(rec *httptest.ResponseRecorder) appErrors.Response {
	var body appErrors.Response
	ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body
}

var _ = Describe("Bearer and RequireRole", func() {
	var handler http.Handler

	BeforeEach(func() {
		base := transport.NewBaseHandler(logger.Discard())
		handler = middleware.Bearer(verify, base)(
			middleware.RequireRole(base, user.RoleAdmin)(http.HandlerFunc(whoami)),
		)
	})

	serve := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/analytics", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("lets an admin through with the user in context", func() {
		rec := serve("Bearer admin")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("Ada"))
	})

	It("rejects a missing token", func() {
		rec := serve("")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(decodeError(rec).Success).To(BeFalse())
	})

	It("rejects a non-bearer scheme", func() {
		Expect(serve("Basic admin").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects an unknown token", func() {
		rec := serve("Bearer forged")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(decodeError(rec).Error).To(Equal("Invalid token"))
	})

	It("forbids employees", func() {
		rec := serve("Bearer employee")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(decodeError(rec).Code).To(Equal(string(appErrors.ErrCodeAdminOnly)))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into a 500 envelope", func() {
		h := middleware.RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		body := decodeError(rec)
		Expect(body.Success).To(BeFalse())
		Expect(body.Error).To(Equal("Internal server error"))
	})
})

var _ = Describe("RequestID and LoggingMiddleware", func() {
	var (
		buf *bytes.Buffer
		h   http.Handler
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		h = middleware.RequestID(middleware.LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"token":"abc.def","user":{"name":"Ada"}}}`))
		})))
	})

	It("keeps a caller supplied request id", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Request-ID")).To(Equal("req-42"))
		Expect(buf.String()).To(ContainSubstring(`"request_id":"req-42"`))
	})

	It("filters credentials from request and response logs", func() {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"hunter22"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer secret-token")
		h.ServeHTTP(httptest.NewRecorder(), req)

		logged := buf.String()
		Expect(logged).To(ContainSubstring("ada@example.com"))
		Expect(logged).To(ContainSubstring("Ada"))
		Expect(logged).NotTo(ContainSubstring("hunter22"))
		Expect(logged).NotTo(ContainSubstring("secret-token"))
		Expect(logged).NotTo(ContainSubstring("abc.def"))
	})
})
