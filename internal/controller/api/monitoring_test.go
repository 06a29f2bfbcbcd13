package api_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/commvault-security/securityiq-connector/internal/config"
	"github.com/commvault-security/securityiq-connector/internal/controller/api"

	"github.com/gorilla/mux"
)

var _ = Describe("MonitoringServer", func() {

	var router *mux.Router

	BeforeEach(func() {
		cfg := config.GetConfig()
		router = mux.NewRouter()
		server := api.NewMonitoringServer(router, cfg)
		server.Routes()
	})

	DescribeTable("Probe endpoints respond with 200",
		func(path string) {
			req, err := http.NewRequest("GET", path, nil)
			Expect(err).NotTo(HaveOccurred())

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			Expect(rr.Code).To(Equal(http.StatusOK))
		},
		Entry("liveness", "/liveness"),
		Entry("readiness", "/readiness"),
		Entry("metrics", "/metrics"),
	)
})
