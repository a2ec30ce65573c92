package apiserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/romanconv/romanconv/api/v1"
	apiserver "github.com/romanconv/romanconv/internal/api_server"
	"github.com/romanconv/romanconv/internal/config"
	"github.com/romanconv/romanconv/internal/instrumentation/metrics"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/sirupsen/logrus"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Server Suite")
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func get(url string) (int, http.Header, string) {
	resp, err := http.Get(url) //nolint:gosec
	Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).ToNot(HaveOccurred())
	return resp.StatusCode, resp.Header, string(body)
}

func do(method, url string) (int, http.Header, string) {
	req, err := http.NewRequest(method, url, nil)
	Expect(err).ToNot(HaveOccurred())
	resp, err := http.DefaultClient.Do(req)
	Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).ToNot(HaveOccurred())
	return resp.StatusCode, resp.Header, string(body)
}

var _ = Describe("Conversion API", func() {
	var (
		cfg        *config.Config
		log        *logrus.Logger
		conversion *metrics.ConversionCollector
		apiMetrics *metrics.ApiCollector
		ts         *httptest.Server
	)

	BeforeEach(func() {
		cfg = config.NewDefault()
		log = quietLogger()
		conversion = metrics.NewConversionCollector()
		apiMetrics = metrics.NewApiCollector(cfg)
	})

	JustBeforeEach(func() {
		svc := service.NewServiceHandler(log, conversion)
		srv := apiserver.New(log, cfg, nil, svc, apiMetrics)
		ts = httptest.NewServer(srv.Router())
	})

	AfterEach(func() {
		ts.Close()
	})

	Context("GET /romannumeral", func() {
		It("converts 42", func() {
			code, header, body := get(ts.URL + "/romannumeral?query=42")
			Expect(code).To(Equal(http.StatusOK))
			Expect(header.Get("Content-Type")).To(Equal("application/json"))

			var got api.ConversionResponse
			Expect(json.Unmarshal([]byte(body), &got)).To(Succeed())
			Expect(cmp.Diff(api.ConversionResponse{Input: "42", Output: "XLII"}, got)).To(BeEmpty())
		})

		DescribeTable("concrete conversions",
			func(query, numeral string) {
				code, _, body := get(ts.URL + "/romannumeral?query=" + query)
				Expect(code).To(Equal(http.StatusOK))
				Expect(body).To(MatchJSON(fmt.Sprintf(`{"input":%q,"output":%q}`, query, numeral)))
			},
			Entry("lower bound", "1", "I"),
			Entry("four", "4", "IV"),
			Entry("nine", "9", "IX"),
			Entry("1994", "1994", "MCMXCIV"),
			Entry("upper bound", "3999", "MMMCMXCIX"),
		)

		DescribeTable("rejects bad input with 400",
			func(target, message string) {
				code, header, body := get(ts.URL + target)
				Expect(code).To(Equal(http.StatusBadRequest))
				Expect(header.Get("Content-Type")).To(HavePrefix("text/plain"))
				Expect(body).To(Equal(message))
			},
			Entry("zero", "/romannumeral?query=0", "Number must be between 1 and 3999"),
			Entry("above range", "/romannumeral?query=4000", "Number must be between 1 and 3999"),
			Entry("negative", "/romannumeral?query=-5", "Number must be between 1 and 3999"),
			Entry("missing", "/romannumeral", "Missing query parameter"),
			Entry("empty", "/romannumeral?query=", "Missing query parameter"),
			Entry("letters", "/romannumeral?query=abc", "Invalid number format"),
			Entry("fraction", "/romannumeral?query=3.5", "Invalid number format"),
		)

		It("returns 404 for other methods", func() {
			code, _, body := do(http.MethodPost, ts.URL+"/romannumeral?query=42")
			Expect(code).To(Equal(http.StatusNotFound))
			Expect(body).To(Equal("Not found"))
		})

		It("adds CORS and request id headers", func() {
			_, header, _ := get(ts.URL + "/romannumeral?query=7")
			Expect(header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("GET"))
			Expect(header.Get("X-Request-Id")).ToNot(BeEmpty())
		})

		It("answers preflight requests", func() {
			code, header, body := do(http.MethodOptions, ts.URL+"/romannumeral")
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(BeEmpty())
			Expect(header.Get("Access-Control-Allow-Headers")).To(Equal("Content-Type"))
		})

		It("records conversion and request metrics", func() {
			get(ts.URL + "/romannumeral?query=42")
			get(ts.URL + "/romannumeral?query=0")

			rec := httptest.NewRecorder()
			metrics.NewHandler(conversion, apiMetrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			out := rec.Body.String()
			Expect(out).To(ContainSubstring(`roman_conversion_total{direction="to_roman",input_range="11-50",status="success"} 1`))
			Expect(out).To(ContainSubstring(`errors_total{context="to_roman",type="out_of_range"} 1`))
			Expect(out).To(ContainSubstring(`http_requests_total{method="GET",route="/romannumeral",status_code="200"} 1`))
			Expect(out).To(ContainSubstring(`http_requests_total{method="GET",route="/romannumeral",status_code="400"} 1`))
		})
	})

	Context("GET /arabicnumeral", func() {
		It("converts XLII", func() {
			code, _, body := get(ts.URL + "/arabicnumeral?query=XLII")
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"input":"XLII","output":"42"}`))
		})

		It("rejects invalid numerals", func() {
			code, _, body := get(ts.URL + "/arabicnumeral?query=IC")
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(body).To(Equal("Invalid Roman numeral: IC"))
		})
	})

	Context("health endpoints", func() {
		It("reports status with a UTC timestamp", func() {
			code, _, body := get(ts.URL + "/health")
			Expect(code).To(Equal(http.StatusOK))

			var got api.HealthResponse
			Expect(json.Unmarshal([]byte(body), &got)).To(Succeed())
			Expect(got.Status).To(Equal("OK"))
			stamp, err := time.Parse(time.RFC3339, got.Timestamp)
			Expect(err).ToNot(HaveOccurred())
			Expect(stamp.Location()).To(Equal(time.UTC))
			Expect(got.Timestamp).To(HaveSuffix("Z"))
		})

		It("serves liveness and readiness probes", func() {
			code, _, _ := get(ts.URL + "/healthz")
			Expect(code).To(Equal(http.StatusOK))
			code, _, _ = get(ts.URL + "/readyz")
			Expect(code).To(Equal(http.StatusOK))
		})
	})

	Context("readiness failures", func() {
		JustBeforeEach(func() {
			ts.Close()
			failing := apiserver.HealthCheckerFunc(func(context.Context) error { return errors.New("draining") })
			srv := apiserver.New(log, cfg, nil, service.NewServiceHandler(log, nil), nil, failing)
			ts = httptest.NewServer(srv.Router())
		})

		It("returns 503", func() {
			code, _, _ := get(ts.URL + "/readyz")
			Expect(code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("unknown routes", func() {
		It("returns 404 Not found", func() {
			code, header, body := get(ts.URL + "/does-not-exist")
			Expect(code).To(Equal(http.StatusNotFound))
			Expect(body).To(Equal("Not found"))
			Expect(header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Context("with rate limiting", func() {
		BeforeEach(func() {
			cfg.Service.RateLimit.Requests = 2
		})

		It("limits conversion requests but not probes", func() {
			for i := 0; i < 2; i++ {
				code, _, _ := get(ts.URL + "/romannumeral?query=1")
				Expect(code).To(Equal(http.StatusOK))
			}
			code, header, _ := get(ts.URL + "/romannumeral?query=1")
			Expect(code).To(Equal(http.StatusTooManyRequests))
			Expect(header.Get("Retry-After")).To(Equal("60"))

			code, _, _ = get(ts.URL + "/healthz")
			Expect(code).To(Equal(http.StatusOK))
		})
	})

	Context("with a static directory", func() {
		BeforeEach(func() {
			dir := GinkgoT().TempDir()
			Expect(os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0600)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0600)).To(Succeed())
			cfg.Service.StaticDir = dir
		})

		It("serves files and falls back to index.html", func() {
			code, _, body := get(ts.URL + "/app.js")
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(Equal("console.log(1)"))

			code, _, body = get(ts.URL + "/some/client/route")
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(Equal("<html>app</html>"))

			code, _, body = get(ts.URL + "/romannumeral?query=3")
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"input":"3","output":"III"}`))
		})

		It("keeps 404 for non-GET requests", func() {
			code, _, body := do(http.MethodDelete, ts.URL+"/some/client/route")
			Expect(code).To(Equal(http.StatusNotFound))
			Expect(strings.TrimSpace(body)).To(Equal("Not found"))
		})
	})
})

var _ = Describe("Server lifecycle", func() {
	It("serves until the context is cancelled", func() {
		cfg := config.NewDefault()
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())

		log := quietLogger()
		srv := apiserver.New(log, cfg, listener, service.NewServiceHandler(log, nil), nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Run(ctx) }()

		url := "http://" + listener.Addr().String() + "/romannumeral?query=2024"
		Eventually(func() error {
			resp, err := http.Get(url) //nolint:gosec
			if err != nil {
				return err
			}
			resp.Body.Close()
			return nil
		}, 2*time.Second, 20*time.Millisecond).Should(Succeed())

		code, _, body := get(url)
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"input":"2024","output":"MMXXIV"}`))

		cancel()
		Eventually(done, 3*time.Second).Should(Receive(BeNil()))
	})
})
