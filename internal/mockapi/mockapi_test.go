package mockapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-client/internal/category"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/mockapi"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// newServer starts a seeded mock API.
func newServer(ttl time.Duration) (*httptest.Server, *mockapi.Store, *mockapi.Auth) {
	store := mockapi.NewStore()
	auth := mockapi.NewAuth(store, "test-secret-test-secret-test-secret", ttl)
	Expect(mockapi.Seed(store, auth, time.Now())).To(Succeed())

	categories := category.NewService(category.NewStaticRepository(), logger.Discard())
	handler := mockapi.NewHandler(store, auth, categories, logger.Discard())
	server := httptest.NewServer(mockapi.NewRouter(handler, auth, logger.Discard()))
	DeferCleanup(server.Close)
	return server, store, auth
}

var _ = Describe("Mock API", func() {
	var server *httptest.Server

	BeforeEach(func() {
		server, _, _ = newServer(time.Hour)
	})

	call := func(method, path, token string, body interface{}) (int, envelope) {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequest(method, server.URL+path, reader)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var env envelope
		Expect(json.NewDecoder(resp.Body).Decode(&env)).To(Succeed())
		return resp.StatusCode, env
	}

	login := func(email, password string) (string, user.User) {
		status, env := call(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
		Expect(status).To(Equal(http.StatusOK))
		var result struct {
			Token string    `json:"token"`
			User  user.User `json:"user"`
		}
		Expect(json.Unmarshal(env.Data, &result)).To(Succeed())
		return result.Token, result.User
	}

	It("signs in the seeded accounts with their roles", func() {
		_, admin := login(mockapi.AdminEmail, mockapi.AdminPassword)
		Expect(admin.Role).To(Equal(user.RoleAdmin))
		_, employee := login(mockapi.EmployeeEmail, mockapi.EmployeePassword)
		Expect(employee.Role).To(Equal(user.RoleEmployee))
	})

	It("rejects a wrong password with an error message", func() {
		status, env := call(http.MethodPost, "/auth/login", "", map[string]string{"email": mockapi.AdminEmail, "password": "nope"})
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(env.Success).To(BeFalse())
		Expect(env.Error).To(Equal("Invalid email or password"))
	})

	It("registers employees and refuses duplicate emails", func() {
		body := map[string]string{"name": "Nia", "email": "nia@example.com", "password": "secret1", "confirmPassword": "secret1"}
		status, _ := call(http.MethodPost, "/auth/register", "", body)
		Expect(status).To(Equal(http.StatusCreated))

		status, env := call(http.MethodPost, "/auth/register", "", body)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(env.Error).To(Equal("Email already registered"))
	})

	It("requires a bearer token for expenses", func() {
		status, _ := call(http.MethodGet, "/expenses", "", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})

	It("keeps admin endpoints away from employees", func() {
		token, _ := login(mockapi.EmployeeEmail, mockapi.EmployeePassword)
		status, env := call(http.MethodGet, "/admin/analytics", token, nil)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(env.Success).To(BeFalse())
	})

	It("shows employees only their own expenses", func() {
		body := map[string]string{"name": "Nia", "email": "nia@example.com", "password": "secret1", "confirmPassword": "secret1"}
		_, _ = call(http.MethodPost, "/auth/register", "", body)
		token, _ := login("nia@example.com", "secret1")

		status, env := call(http.MethodGet, "/expenses", token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(Equal("[]"))

		status, _ = call(http.MethodPost, "/expenses", token, map[string]interface{}{
			"category": "Food", "amount": 9.5, "date": time.Now().Format("2006-01-02"), "description": "Coffee",
		})
		Expect(status).To(Equal(http.StatusCreated))

		_, env = call(http.MethodGet, "/expenses", token, nil)
		var list []map[string]interface{}
		Expect(json.Unmarshal(env.Data, &list)).To(Succeed())
		Expect(list).To(HaveLen(1))
		Expect(list[0]["status"]).To(Equal("PENDING"))
	})

	It("filters by status", func() {
		token, _ := login(mockapi.AdminEmail, mockapi.AdminPassword)
		_, env := call(http.MethodGet, "/expenses?status=APPROVED", token, nil)
		var list []map[string]interface{}
		Expect(json.Unmarshal(env.Data, &list)).To(Succeed())
		Expect(list).To(HaveLen(2))
		for _, e := range list {
			Expect(e["status"]).To(Equal("APPROVED"))
		}
	})

	It("rejects unknown categories", func() {
		token, _ := login(mockapi.EmployeeEmail, mockapi.EmployeePassword)
		status, _ := call(http.MethodPost, "/expenses", token, map[string]interface{}{
			"category": "Yachts", "amount": 1, "date": "2025-01-01", "description": "x",
		})
		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("requires remarks to reject", func() {
		token, _ := login(mockapi.AdminEmail, mockapi.AdminPassword)
		_, env := call(http.MethodGet, "/expenses?status=PENDING", token, nil)
		var list []map[string]interface{}
		Expect(json.Unmarshal(env.Data, &list)).To(Succeed())
		Expect(list).NotTo(BeEmpty())
		id := list[0]["id"].(string)

		status, env := call(http.MethodPatch, "/admin/expenses/"+id, token, map[string]string{"status": "REJECTED"})
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(env.Error).To(Equal("Remarks are required"))

		status, env = call(http.MethodPatch, "/admin/expenses/"+id, token, map[string]string{"status": "REJECTED", "remarks": "No receipt"})
		Expect(status).To(Equal(http.StatusOK))
		var updated map[string]interface{}
		Expect(json.Unmarshal(env.Data, &updated)).To(Succeed())
		Expect(updated["status"]).To(Equal("REJECTED"))
		Expect(updated["remarks"]).To(Equal("No receipt"))
	})

	It("serves its API description", func() {
		resp, err := http.Get(server.URL + "/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring("openapi: 3.0"))
	})
})

var _ = Describe("Auth", func() {
	It("refuses an expired token", func() {
		_, store, auth := newServer(time.Minute)
		_, u, err := auth.Authenticate(mockapi.AdminEmail, mockapi.AdminPassword)
		Expect(err).NotTo(HaveOccurred())

		expired := mockapi.NewAuth(store, "test-secret-test-secret-test-secret", -time.Minute)
		token, err := expired.GenerateAccessToken(u)
		Expect(err).NotTo(HaveOccurred())

		_, err = auth.Verify(token)
		Expect(err).To(MatchError("Token expired"))
	})

	It("refuses a token signed with another secret", func() {
		_, store, auth := newServer(time.Minute)
		_, u, err := auth.Authenticate(mockapi.AdminEmail, mockapi.AdminPassword)
		Expect(err).NotTo(HaveOccurred())

		forged, err := mockapi.NewAuth(store, "another-secret", time.Minute).GenerateAccessToken(u)
		Expect(err).NotTo(HaveOccurred())
		_, err = auth.Verify(forged)
		Expect(err).To(MatchError("Invalid token"))
	})
})
