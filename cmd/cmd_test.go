package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-client/internal/category"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/mockapi"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

func writeConfig(dir, body string) {
	Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
}

var _ = Describe("loadConfig", func() {
	It("falls back to the defaults without a config file", func() {
		cfg, err := loadConfig(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.BaseURL).To(Equal("http://localhost:8081"))
		Expect(cfg.Forms.FeedbackTTL).To(Equal(3 * time.Second))
	})

	It("overrides defaults from config.yml", func() {
		dir := GinkgoT().TempDir()
		writeConfig(dir, `
api:
  base_url: http://api.internal:9000
forms:
  feedback_ttl: 5s
observability:
  logging:
    level: debug
`)
		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.BaseURL).To(Equal("http://api.internal:9000"))
		Expect(cfg.Forms.FeedbackTTL).To(Equal(5 * time.Second))
		Expect(cfg.Observability.Logging.Level).To(Equal("debug"))
		Expect(cfg.Server.Port).To(Equal(3000))
	})

	It("rejects an invalid file", func() {
		dir := GinkgoT().TempDir()
		writeConfig(dir, "api:\n  base_url: ftp://nowhere\n")
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("base_url must be http or https")))
	})
})

var _ = Describe("CLI against the mock API", Ordered, func() {
	var (
		dir   string
		store *mockapi.Store
	)

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetIn(&bytes.Buffer{})
		rootCmd.SetArgs(append(args, "--config", dir))
		err := rootCmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	BeforeAll(func() {
		store = mockapi.NewStore()
		auth := mockapi.NewAuth(store, "cli-test-secret-0123456789", time.Hour)
		Expect(mockapi.Seed(store, auth, time.Now())).To(Succeed())
		categories := category.NewService(category.NewStaticRepository(), logger.Discard())
		server := httptest.NewServer(mockapi.NewRouter(mockapi.NewHandler(store, auth, categories, logger.Discard()), auth, logger.Discard()))
		DeferCleanup(server.Close)

		dir = GinkgoT().TempDir()
		writeConfig(dir, fmt.Sprintf(`
api:
  base_url: %s
session:
  path: %s
observability:
  logging:
    level: error
`, server.URL, filepath.Join(dir, "session.db")))
	})

	It("refuses expense commands before login", func() {
		_, err := run("expenses", "list")
		Expect(err).To(MatchError(ContainSubstring("Not signed in")))
	})

	It("resolves routes to login while signed out", func() {
		out, err := run("route", "/dashboard")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("/login (login, redirected)"))
	})

	It("signs an employee in and persists the session", func() {
		out, err := run("login", "--email", mockapi.EmployeeEmail, "--password", mockapi.EmployeePassword)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Signed in as Employee (EMPLOYEE)"))
		Expect(out).To(ContainSubstring("/expenses"))

		out, err = run("whoami")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(mockapi.EmployeeEmail))
		Expect(out).To(ContainSubstring("Token expires"))
	})

	It("lists the employee's expenses without a user column", func() {
		out, err := run("expenses", "list", "--sort", "amount", "--page-size", "10")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("AMOUNT ^"))
		Expect(out).NotTo(ContainSubstring("USER"))
		Expect(out).To(ContainSubstring("Page 1 of 1 (5 expenses, 10 per page)"))
	})

	It("submits an expense and shows the refreshed list", func() {
		out, err := run("expenses", "submit",
			"--category", "Food", "--amount", "12.5",
			"--date", time.Now().Format("2006-01-02"), "--description", "Coffee beans")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Your expense has been submitted successfully."))
		Expect(out).To(ContainSubstring("Coffee beans"))
		Expect(out).To(ContainSubstring("6 expenses"))
	})

	It("rejects an invalid submission", func() {
		_, err := run("expenses", "submit",
			"--category", "Food", "--amount", "-3",
			"--date", time.Now().Format("2006-01-02"), "--description", "Refund")
		Expect(err).To(HaveOccurred())
	})

	It("keeps the dashboard from an employee", func() {
		_, err := run("dashboard")
		Expect(err).To(MatchError(ContainSubstring("opens the expense-list view")))
	})

	It("lets an admin filter the dashboard and put an expense on hold", func() {
		_, err := run("logout")
		Expect(err).NotTo(HaveOccurred())
		_, err = run("login", "--email", mockapi.AdminEmail, "--password", mockapi.AdminPassword)
		Expect(err).NotTo(HaveOccurred())

		out, err := run("dashboard", "--status", "PENDING", "--sort", "user")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Total spend"))
		Expect(out).To(ContainSubstring("USER ^"))
		Expect(out).To(ContainSubstring("Team lunch"))
		Expect(out).NotTo(ContainSubstring("Client visit train tickets"))

		pending, err := store.ListExpenses(&user.User{Role: user.RoleAdmin}, expenseDatamodel.ListFilter{Status: "PENDING"})
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).NotTo(BeEmpty())
		id := pending[0].ID

		_, err = run("expenses", "hold", id)
		Expect(err).To(MatchError(ContainSubstring("Remarks are required")))

		out, err = run("expenses", "hold", id, "--remarks", "Need the receipt")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("is now ONHOLD"))
		Expect(out).To(ContainSubstring("Need the receipt"))

		held, err := store.GetExpense(&user.User{Role: user.RoleAdmin}, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(held.Status).To(Equal(expenseDatamodel.StatusOnHold))
	})

	It("clears the session on logout", func() {
		_, err := run("logout")
		Expect(err).NotTo(HaveOccurred())
		out, err := run("whoami")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Not signed in"))
	})
})

var _ = Describe("categories", func() {
	It("prints the catalog as JSON", func() {
		dir := GinkgoT().TempDir()
		writeConfig(dir, "observability:\n  logging:\n    level: error\n")

		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"categories", "--json", "--config", dir})
		Expect(rootCmd.ExecuteContext(context.Background())).To(Succeed())

		var resp category.CategoriesResponse
		Expect(json.Unmarshal(out.Bytes(), &resp)).To(Succeed())
		Expect(resp.Count).To(Equal(16))
		Expect(resp.Categories[0].Name).To(Equal("Food"))
	})
})
