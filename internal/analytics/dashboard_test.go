package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	appErrors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/analytics"
	"github.com/frahmantamala/expense-client/internal/apiclient"
	analyticsDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/analytics"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/expense"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

type fakeSource struct {
	mu       sync.Mutex
	snapshot *analyticsDatamodel.Snapshot
	err      error
	gate     chan struct{}
}

func (f *fakeSource) Analytics(context.Context) (*analyticsDatamodel.Snapshot, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, f.err
}

type fakeLister struct {
	records []expense.Expense
	err     error
	filters []expenseDatamodel.ListFilter
}

func (f *fakeLister) List(_ context.Context, filter expenseDatamodel.ListFilter) ([]expense.Expense, error) {
	f.filters = append(f.filters, filter)
	return f.records, f.err
}

func fixture() *analyticsDatamodel.Snapshot {
	return &analyticsDatamodel.Snapshot{
		ByCategory: []analyticsDatamodel.CategorySum{
			analyticsDatamodel.NewCategorySum("Food", decimal.RequireFromString("120.50")),
			analyticsDatamodel.NewCategorySum("Travel", decimal.RequireFromString("900")),
		},
		ByMonth: []analyticsDatamodel.MonthTotal{
			{Month: "2025-05", Total: decimal.RequireFromString("1020.50")},
		},
		ByStatus: []analyticsDatamodel.StatusCount{
			analyticsDatamodel.NewStatusCount("PENDING", 2),
			analyticsDatamodel.NewStatusCount("APPROVED", 1),
		},
	}
}

func submitted(id, name string) expense.Expense {
	return expense.Expense{ID: id, Category: "Food", Amount: decimal.NewFromInt(1), User: &user.User{Name: name}}
}

var _ = Describe("Dashboard", func() {
	var (
		ctx    context.Context
		source *fakeSource
		lister *fakeLister
		dash   *analytics.Dashboard
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = &fakeSource{snapshot: fixture()}
		lister = &fakeLister{records: []expense.Expense{submitted("1", "zoe"), submitted("2", "Adam")}}
		dash = analytics.NewDashboard(source, lister, logger.Discard())
		dash.Mount()
	})

	It("loads all three aggregate lists", func() {
		Expect(dash.Load(ctx)).To(Succeed())
		snap := dash.Snapshot()
		Expect(snap.ByCategory).NotTo(BeEmpty())
		Expect(snap.ByMonth).NotTo(BeEmpty())
		Expect(snap.ByStatus).NotTo(BeEmpty())
		Expect(dash.Categories()).To(Equal([]string{"Food", "Travel"}))
		Expect(dash.Total().String()).To(Equal("1020.5"))
	})

	It("hands out snapshots that callers cannot modify", func() {
		Expect(dash.Load(ctx)).To(Succeed())
		snap := dash.Snapshot()
		snap.ByCategory[0].SummedAmount = decimal.Zero
		snap.ByStatus[0].Count = 99
		snap.ByMonth = nil

		again := dash.Snapshot()
		Expect(again.ByCategory[0].SummedAmount.String()).To(Equal("120.5"))
		Expect(again.ByStatus[0].Count).To(Equal(2))
		Expect(again.ByMonth).To(HaveLen(1))
		Expect(dash.Total().String()).To(Equal("1020.5"))
	})

	It("uses the response message when the fetch fails", func() {
		source.err = &apiclient.ResponseError{StatusCode: 403, Message: "Admins only"}
		err := dash.Load(ctx)
		Expect(err).To(MatchError(ContainSubstring("Admins only")))
		Expect(appErrors.IsType(err, appErrors.ErrorTypeFetch)).To(BeTrue())
		Expect(dash.Snapshot()).To(BeNil())
	})

	It("falls back to a fixed message", func() {
		source.err = errors.New("connection reset")
		err := dash.Load(ctx)
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Message).To(Equal("Failed to fetch analytics"))
		Expect(dash.SnapshotErr()).To(Equal(err))
	})

	It("passes filters through to the expense query", func() {
		f := analytics.Filter{StartDate: "2025-01-01", EndDate: "2025-01-31", Category: "Food", Status: "ONHOLD"}
		Expect(dash.ApplyFilters(ctx, f)).To(Succeed())
		Expect(lister.filters).To(Equal([]expenseDatamodel.ListFilter{{
			StartDate: "2025-01-01", EndDate: "2025-01-31", Category: "Food", Status: "ONHOLD",
		}}))
		Expect(dash.Filter()).To(Equal(f))
		Expect(dash.Page().Total).To(Equal(2))
	})

	It("rejects an unknown status without a request", func() {
		Expect(dash.ApplyFilters(ctx, analytics.Filter{Status: "PAID"})).NotTo(Succeed())
		Expect(lister.filters).To(BeEmpty())
	})

	It("sorts the table by submitter ignoring case", func() {
		Expect(dash.ApplyFilters(ctx, analytics.Filter{})).To(Succeed())
		Expect(dash.Engine().Toggle("user")).To(Succeed())
		rows := dash.Page().Rows
		Expect(rows[0].User.Name).To(Equal("Adam"))
		Expect(rows[1].User.Name).To(Equal("zoe"))
	})

	It("reports an expense fetch failure separately from the snapshot", func() {
		lister.err = appErrors.NewFetchError("Failed to fetch expenses", errors.New("boom"))
		Expect(dash.Load(ctx)).To(Succeed())
		Expect(dash.ApplyFilters(ctx, analytics.Filter{})).NotTo(Succeed())
		Expect(dash.ExpensesErr()).To(MatchError(ContainSubstring("Failed to fetch expenses")))
		Expect(dash.SnapshotErr()).NotTo(HaveOccurred())
	})

	It("drops a snapshot that arrives after unmount", func() {
		source.gate = make(chan struct{})
		done := make(chan error, 1)
		go func() { done <- dash.Load(ctx) }()
		Eventually(dash.Loading).Should(BeTrue())

		dash.Unmount()
		close(source.gate)
		Eventually(done).Should(Receive(BeNil()))
		Expect(dash.Snapshot()).To(BeNil())
	})
})

var _ = Describe("Snapshot wire shape", func() {
	It("reads and writes the nested aggregate fields", func() {
		raw, err := json.Marshal(fixture())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`{"category":"Food","_sum":{"amount":"120.5"}}`))
		Expect(string(raw)).To(ContainSubstring(`{"status":"PENDING","_count":{"id":2}}`))

		var decoded analyticsDatamodel.Snapshot
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		Expect(decoded.ByCategory[1].Category).To(Equal("Travel"))
		Expect(decoded.ByCategory[1].SummedAmount.String()).To(Equal("900"))
		Expect(decoded.ByStatus[1].Status).To(Equal("APPROVED"))
		Expect(decoded.ByStatus[1].Count).To(Equal(1))
	})
})
