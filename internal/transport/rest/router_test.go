package rest_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-client/internal/transport/rest"
	"github.com/frahmantamala/expense-client/pkg/logger"
)

const indexHTML = `<!doctype html><div id="root"></div>`

var _ = Describe("Static host", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(dir, "static", "js"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "static", "js", "main.js"), []byte("console.log(1)"), 0o644)).To(Succeed())
	})

	Context("startup", func() {
		It("fails when the directory is missing", func() {
			_, err := rest.OpenBundle(filepath.Join(dir, "nope"))
			Expect(err).To(MatchError(ContainSubstring("asset dir")))
		})

		It("fails when the entry document is missing", func() {
			Expect(os.Remove(filepath.Join(dir, "index.html"))).To(Succeed())
			_, err := rest.OpenBundle(dir)
			Expect(err).To(MatchError(ContainSubstring("index.html")))
		})

		It("fails when the path is a file", func() {
			_, err := rest.OpenBundle(filepath.Join(dir, "index.html"))
			Expect(err).To(MatchError(ContainSubstring("not a directory")))
		})
	})

	Context("serving", func() {
		var server *httptest.Server

		BeforeEach(func() {
			bundle, err := rest.OpenBundle(dir)
			Expect(err).NotTo(HaveOccurred())
			server = httptest.NewServer(rest.NewStaticRouter(bundle, logger.Discard()))
			DeferCleanup(server.Close)
		})

		get := func(path string) (int, string, http.Header) {
			resp, err := http.Get(server.URL + path)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			return resp.StatusCode, string(body), resp.Header
		}

		It("serves bundle files", func() {
			status, body, _ := get("/static/js/main.js")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(Equal("console.log(1)"))
		})

		DescribeTable("falls back to the entry document",
			func(path string) {
				status, body, _ := get(path)
				Expect(status).To(Equal(http.StatusOK))
				Expect(body).To(Equal(indexHTML))
			},
			Entry("root", "/"),
			Entry("client route", "/dashboard"),
			Entry("nested client route", "/expenses/42"),
			Entry("missing asset", "/static/js/gone.js"),
			Entry("directory", "/static"),
		)

		It("tags responses with a request id", func() {
			_, _, header := get("/")
			Expect(header.Get("X-Request-ID")).NotTo(BeEmpty())
		})

		It("reports bundle health", func() {
			status, body, _ := get("/healthz")
			Expect(status).To(Equal(http.StatusOK))

			var resp rest.HealthResponse
			Expect(json.Unmarshal([]byte(body), &resp)).To(Succeed())
			Expect(resp.Status).To(Equal(rest.HealthHealthy))
			Expect(resp.Components).To(HaveKey("bundle"))
		})

		It("turns unhealthy when the bundle disappears", func() {
			Expect(os.Remove(filepath.Join(dir, "index.html"))).To(Succeed())
			status, body, _ := get("/healthz")
			Expect(status).To(Equal(http.StatusServiceUnavailable))
			Expect(body).To(ContainSubstring(`"unhealthy"`))
		})
	})
})
