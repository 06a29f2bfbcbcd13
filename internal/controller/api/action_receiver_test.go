package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/commvault-security/securityiq-connector/internal/config"
	"github.com/commvault-security/securityiq-connector/internal/controller/api"
	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/middlewares"

	"github.com/gorilla/mux"
)

const (
	testClientID = "soar-platform"
	testPSK      = "test-psk"
	actionURL    = "/api/securityiq-connector/v1/action"
)

type recordingDispatcher struct {
	gotAction domain.ActionID
	gotParams map[string]interface{}
	gotAsset  domain.AssetConfig
	result    domain.ActionResult
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, action domain.ActionID, params map[string]interface{}) domain.ActionResult {
	d.gotAction = action
	d.gotParams = params
	return d.result
}

func actionRequestBody(action string) []byte {
	body := map[string]interface{}{
		"action": action,
		"asset": map[string]interface{}{
			"endpoint":           "https://commcell.example.com/commandcenter/api",
			"access_token":       "qsdk-token",
			"platform_api_token": "soar-token",
		},
		"parameters": map[string]interface{}{
			"user_email": "jdoe@example.com",
		},
	}
	jsonBytes, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	return jsonBytes
}

var _ = Describe("ActionReceiver", func() {

	var (
		router     *mux.Router
		dispatcher *recordingDispatcher
	)

	BeforeEach(func() {
		cfg := config.GetConfig()
		cfg.ServiceToServiceCredentials = map[string]interface{}{testClientID: testPSK}

		dispatcher = &recordingDispatcher{
			result: domain.NewSuccessResult("User [jdoe@example.com] is disabled", nil),
		}

		factory := func(asset domain.AssetConfig) api.ActionDispatcher {
			dispatcher.gotAsset = asset
			return dispatcher
		}

		router = mux.NewRouter()
		receiver := api.NewActionReceiver(factory, router, cfg.UrlBasePath, cfg)
		receiver.Routes()
	})

	makeRequest := func(body []byte, authenticated bool) *httptest.ResponseRecorder {
		req, err := http.NewRequest("POST", actionURL, bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		if authenticated {
			req.Header.Add(middlewares.PSKClientIdHeader, testClientID)
			req.Header.Add(middlewares.PSKHeader, testPSK)
		}

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	Describe("Receiving an action request", func() {

		It("Dispatches the action against the supplied asset", func() {
			rr := makeRequest(actionRequestBody("disable_user"), true)

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(dispatcher.gotAction).To(Equal(domain.ActionDisableUser))
			Expect(dispatcher.gotParams).To(HaveKeyWithValue("user_email", "jdoe@example.com"))
			Expect(dispatcher.gotAsset.Endpoint).To(Equal("https://commcell.example.com/commandcenter/api"))

			var result domain.ActionResult
			err := json.Unmarshal(rr.Body.Bytes(), &result)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(domain.StatusSuccess))
			Expect(result.Summary.TotalObjectsSuccessful).To(Equal(1))
		})

		It("Returns 200 with a failed result when the action fails", func() {
			dispatcher.result = domain.NewFailedResult("Could not find user with email [jdoe@example.com]", nil)

			rr := makeRequest(actionRequestBody("disable_user"), true)

			Expect(rr.Code).To(Equal(http.StatusOK))

			var result domain.ActionResult
			err := json.Unmarshal(rr.Body.Bytes(), &result)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(domain.StatusFailed))
			Expect(result.Summary.TotalObjectsSuccessful).To(Equal(0))
		})

		It("Rejects a request without credentials", func() {
			rr := makeRequest(actionRequestBody("disable_user"), false)

			Expect(rr.Code).To(Equal(http.StatusUnauthorized))
		})

		It("Rejects malformed json", func() {
			rr := makeRequest([]byte("not json"), true)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})

		It("Rejects a request without an asset", func() {
			body := []byte(`{"action": "test_connectivity"}`)

			rr := makeRequest(body, true)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})

		It("Rejects a request with multiple json objects", func() {
			body := fmt.Sprintf("%s%s", actionRequestBody("on_poll"), actionRequestBody("on_poll"))

			rr := makeRequest([]byte(body), true)

			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
