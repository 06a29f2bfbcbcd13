package cases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	containerLabel      = "events"
	containerStatusOpen = "open"
	sensitivityAmber    = "amber"
	artifactFacility    = "Commvault"
	platformAuthHeader  = "ph-auth-token"
	containerAPIPath    = "rest/container"
	artifactAPIPath     = "rest/artifact"
	defaultCaseSeverity = "medium"
)

// RestCaseCreator creates a container and an accompanying artifact on the
// host platform over its REST API.  The platform API token is distinct from
// the remote-service access token and comes from the asset configuration.
type RestCaseCreator struct {
	baseUrl    string
	apiToken   string
	httpClient *http.Client
}

func NewRestCaseCreator(baseUrl, apiToken string, timeout time.Duration) *RestCaseCreator {
	return &RestCaseCreator{
		baseUrl:    strings.TrimRight(baseUrl, "/") + "/",
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type containerCreatedResponse struct {
	ID json.Number `json:"id"`
}

func (r *RestCaseCreator) CreateCase(ctx context.Context, req domain.CaseCreationRequest) (string, error) {

	severity := req.Severity
	if severity == "" {
		severity = defaultCaseSeverity
	}

	containerRequest := map[string]interface{}{
		"name":                   req.Title,
		"description":            req.Description,
		"label":                  containerLabel,
		"sensitivity":            sensitivityAmber,
		"severity":               strings.ToLower(severity),
		"status":                 containerStatusOpen,
		"source_data_identifier": fmt.Sprintf("%s_%s", req.SourceRecordID, uuid.NewString()),
	}

	var containerResponse containerCreatedResponse
	if err := r.post(ctx, containerAPIPath, containerRequest, &containerResponse); err != nil {
		return "", err
	}

	caseID := containerResponse.ID.String()

	logger.Log.WithFields(logrus.Fields{
		"case_id":   caseID,
		"remote_id": req.SourceRecordID,
	}).Debug("Case created on host platform")

	if err := r.addArtifact(ctx, caseID, req); err != nil {
		return "", err
	}

	return caseID, nil
}

func (r *RestCaseCreator) addArtifact(ctx context.Context, caseID string, req domain.CaseCreationRequest) error {

	cef := map[string]interface{}{
		"deviceFacility": artifactFacility,
	}
	for name, value := range req.Fields {
		cef[name] = value
	}

	artifactRequest := map[string]interface{}{
		"name":                   "artifact for " + artifactFacility,
		"label":                  containerLabel,
		"container_id":           caseID,
		"source_data_identifier": uuid.NewString(),
		"cef":                    cef,
		"data":                   cef,
	}

	return r.post(ctx, artifactAPIPath, artifactRequest, nil)
}

func (r *RestCaseCreator) post(ctx context.Context, path string, payload interface{}, out interface{}) error {

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return &HostInteropError{Op: path, Err: err}
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseUrl+path, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return &HostInteropError{Op: path, Err: err}
	}

	httpRequest.Header.Set(platformAuthHeader, r.apiToken)
	httpRequest.Header.Set("Content-Type", "application/json")

	response, err := r.httpClient.Do(httpRequest)
	if err != nil {
		return &HostInteropError{Op: path, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return &HostInteropError{Op: path, StatusCode: response.StatusCode}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return &HostInteropError{Op: path, Err: err}
	}

	return nil
}
