package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/commvault-security/securityiq-connector/internal/middlewares"
)

const (
	expectedClientID = "soar-platform"
	knownPSK         = "12345"
	authFailure      = "Authentication failed"
)

func authenticatedHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		principal, ok := middlewares.GetPrincipal(req.Context())
		Expect(ok).To(Equal(true))
		Expect(principal.GetClientID()).To(Equal(expectedClientID))
	}
}

func runAuthRequest(req *http.Request, expectedStatusCode int, amw *middlewares.AuthMiddleware) {
	rr := httptest.NewRecorder()
	handler := amw.Authenticate(authenticatedHandler())
	handler.ServeHTTP(rr, req)
	Expect(rr.Code).To(Equal(expectedStatusCode))
}

var _ = Describe("AuthMiddleware", func() {

	var amw *middlewares.AuthMiddleware

	BeforeEach(func() {
		amw = &middlewares.AuthMiddleware{
			Secrets: map[string]interface{}{expectedClientID: knownPSK},
		}
	})

	Describe("Authenticating requests with a pre-shared key", func() {

		It("Accepts a request with a known client id and matching psk", func() {
			req, err := http.NewRequest("POST", "/action", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Add(middlewares.PSKClientIdHeader, expectedClientID)
			req.Header.Add(middlewares.PSKHeader, knownPSK)

			runAuthRequest(req, http.StatusOK, amw)
		})

		It("Rejects a request with a missing client id header", func() {
			req, err := http.NewRequest("POST", "/action", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Add(middlewares.PSKHeader, knownPSK)

			runAuthRequest(req, http.StatusUnauthorized, amw)
		})

		It("Rejects a request with a missing psk header", func() {
			req, err := http.NewRequest("POST", "/action", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Add(middlewares.PSKClientIdHeader, expectedClientID)

			runAuthRequest(req, http.StatusUnauthorized, amw)
		})

		It("Rejects a request with an unknown client id", func() {
			req, err := http.NewRequest("POST", "/action", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Add(middlewares.PSKClientIdHeader, "imposter")
			req.Header.Add(middlewares.PSKHeader, knownPSK)

			runAuthRequest(req, http.StatusUnauthorized, amw)
		})

		It("Rejects a request with a mismatched psk", func() {
			req, err := http.NewRequest("POST", "/action", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Add(middlewares.PSKClientIdHeader, expectedClientID)
			req.Header.Add(middlewares.PSKHeader, "wrong-key")

			runAuthRequest(req, http.StatusUnauthorized, amw)
		})
	})
})
