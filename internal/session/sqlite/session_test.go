package sqlite_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	sessionDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/session"
	"github.com/frahmantamala/expense-client/internal/session/sqlite"
)

var _ = Describe("SessionRepository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo *sqlite.SessionRepository
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = sqlite.Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlite.Migrate(ctx, db)).To(Succeed())

		repo = sqlite.NewSessionRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("applies the embedded migrations", func() {
		version, err := sqlite.Version(ctx, db)
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(int64(1)))
		Expect(db.Migrator().HasTable("session_entries")).To(BeTrue())
	})

	It("reports missing keys without an error", func() {
		value, ok, err := repo.Get(ctx, "token")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(value).To(BeEmpty())
	})

	It("overwrites on repeated Set", func() {
		Expect(repo.Set(ctx, "token", "first")).To(Succeed())
		Expect(repo.Set(ctx, "token", "second")).To(Succeed())

		value, ok, err := repo.Get(ctx, "token")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("second"))

		keys, err := repo.Keys(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{"token"}))
	})

	It("clears every key", func() {
		Expect(repo.Set(ctx, "user", `{"id":"1"}`)).To(Succeed())
		Expect(repo.Set(ctx, "token", "abc")).To(Succeed())
		Expect(repo.Set(ctx, "theme", "dark")).To(Succeed())

		Expect(repo.Clear(ctx)).To(Succeed())

		keys, err := repo.Keys(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(BeEmpty())
	})

	It("writes a batch of entries together", func() {
		Expect(repo.SetAll(ctx, map[string]string{"user": `{"id":"1"}`, "token": "abc"})).To(Succeed())

		keys, err := repo.Keys(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{"token", "user"}))
	})

	It("leaves every key untouched when one write of a batch fails", func() {
		Expect(repo.SetAll(ctx, map[string]string{"user": "old-user", "token": "old-token"})).To(Succeed())

		// token is written first, so the failure on user must undo it
		Expect(db.Callback().Create().Before("gorm:create").Register("test:fail_user", func(tx *gorm.DB) {
			if e, ok := tx.Statement.Dest.(*sessionDatamodel.Entry); ok && e.Key == "user" {
				_ = tx.AddError(errors.New("disk full"))
			}
		})).To(Succeed())

		err := repo.SetAll(ctx, map[string]string{"user": "new-user", "token": "new-token"})
		Expect(err).To(MatchError(ContainSubstring("disk full")))

		token, _, err := repo.Get(ctx, "token")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("old-token"))
		u, _, err := repo.Get(ctx, "user")
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(Equal("old-user"))
	})

	It("rolls the schema back", func() {
		Expect(sqlite.Rollback(ctx, db)).To(Succeed())
		Expect(db.Migrator().HasTable("session_entries")).To(BeFalse())
	})
})
