package logger_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-client/pkg/logger"
)

var _ = Describe("logger", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger.Configure(buf, "debug", "json")
		DeferCleanup(func() { logger.Configure(GinkgoWriter, "info", "text") })
	})

	It("accumulates context fields across calls", func() {
		ctx := logger.With(context.Background(), "requestID", "req-1")
		ctx = logger.With(ctx, "userID", "u-7")
		logger.From(ctx).Info("handled")

		Expect(buf.String()).To(ContainSubstring(`"requestID":"req-1"`))
		Expect(buf.String()).To(ContainSubstring(`"userID":"u-7"`))
	})

	It("does not leak fields into a parent context", func() {
		parent := logger.With(context.Background(), "requestID", "req-1")
		_ = logger.With(parent, "userID", "u-7")
		logger.From(parent).Info("handled")

		Expect(buf.String()).NotTo(ContainSubstring("userID"))
	})

	It("falls back to the process logger without fields", func() {
		logger.From(context.Background()).Debug("plain")
		Expect(buf.String()).To(ContainSubstring(`"msg":"plain"`))
	})

	DescribeTable("parses levels",
		func(in string, want slog.Level) {
			Expect(logger.ParseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("upper case warn", "WARN", slog.LevelWarn),
		Entry("error", "error", slog.LevelError),
		Entry("unknown defaults to info", "verbose", slog.LevelInfo),
	)
})
