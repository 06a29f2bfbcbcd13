package actions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"
	"github.com/commvault-security/securityiq-connector/internal/remote"

	"github.com/go-playground/assert/v2"
)

func init() {
	logger.InitLogger()
}

type stubRemoteService struct {
	callCount int

	probeErr error

	user        *remote.User
	findUserErr error

	userEnabled    bool
	userEnabledErr error
	disableUserErr error

	clientID            int
	lookupClientErr     error
	disableDataAgingErr error

	idpEnabled    bool
	idpLookupErr  error
	idpDisableErr error
}

func (s *stubRemoteService) Probe(ctx context.Context) error {
	s.callCount++
	return s.probeErr
}

func (s *stubRemoteService) FindUserByEmail(ctx context.Context, email string) (*remote.User, error) {
	s.callCount++
	return s.user, s.findUserErr
}

func (s *stubRemoteService) IsUserEnabled(ctx context.Context, userID int) (bool, error) {
	s.callCount++
	return s.userEnabled, s.userEnabledErr
}

func (s *stubRemoteService) DisableUser(ctx context.Context, userID int) error {
	s.callCount++
	return s.disableUserErr
}

func (s *stubRemoteService) LookupClientID(ctx context.Context, clientName string) (int, error) {
	s.callCount++
	return s.clientID, s.lookupClientErr
}

func (s *stubRemoteService) DisableDataAging(ctx context.Context, clientID int) error {
	s.callCount++
	return s.disableDataAgingErr
}

func (s *stubRemoteService) GetIdentityProvider(ctx context.Context, providerName string) (bool, error) {
	s.callCount++
	return s.idpEnabled, s.idpLookupErr
}

func (s *stubRemoteService) DisableIdentityProvider(ctx context.Context, providerName string) error {
	s.callCount++
	return s.idpDisableErr
}

type stubIngestor struct {
	created           int
	err               error
	gotContainerCount int
}

func (s *stubIngestor) Run(ctx context.Context, containerCount int) (int, error) {
	s.gotContainerCount = containerCount
	return s.created, s.err
}

func enabledUser() *remote.User {
	user := &remote.User{Email: "jdoe@example.com", EnableUser: true}
	user.UserEntity.UserID = 42
	return user
}

func TestTestConnectivitySuccess(t *testing.T) {

	executor := NewExecutor(&stubRemoteService{}, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionTestConnectivity, nil)

	assert.Equal(t, result.Status, domain.StatusSuccess)
	assert.Equal(t, result.Summary.TotalObjects, 1)
	assert.Equal(t, result.Summary.TotalObjectsSuccessful, 1)
}

func TestTestConnectivityUnreachableEndpointFailsCleanly(t *testing.T) {

	service := &stubRemoteService{
		probeErr: &remote.TransportError{Kind: remote.TransportNetwork, Err: errors.New("connection refused")},
	}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionTestConnectivity, nil)

	assert.Equal(t, result.Status, domain.StatusFailed)
	assert.Equal(t, result.Summary.TotalObjectsSuccessful, 0)
	if result.Message == "" {
		t.Error("expected a non-empty failure message")
	}
}

func TestDisableUserHappyPath(t *testing.T) {

	service := &stubRemoteService{user: enabledUser(), userEnabled: true}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableUser,
		map[string]interface{}{"user_email": "jdoe@example.com"})

	assert.Equal(t, result.Status, domain.StatusSuccess)
	assert.Equal(t, service.callCount, 3)
}

func TestDisableUserAlreadyDisabledIsSuccess(t *testing.T) {

	service := &stubRemoteService{user: enabledUser(), userEnabled: false}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableUser,
		map[string]interface{}{"user_email": "jdoe@example.com"})

	assert.Equal(t, result.Status, domain.StatusSuccess)
	if !strings.Contains(result.Message, "already disabled") {
		t.Errorf("expected an already-disabled message, got %q", result.Message)
	}
	assert.Equal(t, service.callCount, 2)
}

func TestDisableUserUnknownEmailFails(t *testing.T) {

	service := &stubRemoteService{user: nil}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableUser,
		map[string]interface{}{"user_email": "nobody@example.com"})

	assert.Equal(t, result.Status, domain.StatusFailed)
	if !strings.Contains(result.Message, "nobody@example.com") {
		t.Errorf("expected the email in the failure message, got %q", result.Message)
	}
}

func TestDisableUserMissingEmailSkipsRemoteCalls(t *testing.T) {

	service := &stubRemoteService{}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	tests := []map[string]interface{}{
		nil,
		{},
		{"user_email": ""},
		{"user_email": "   "},
		{"user_email": 42},
	}

	for _, params := range tests {
		result := executor.Dispatch(context.Background(), domain.ActionDisableUser, params)

		assert.Equal(t, result.Status, domain.StatusFailed)
		assert.Equal(t, result.Summary.TotalObjectsSuccessful, 0)
		if result.Message == "" {
			t.Error("expected a non-empty validation message")
		}
	}

	assert.Equal(t, service.callCount, 0)
}

func TestDisableDataAgingHappyPath(t *testing.T) {

	service := &stubRemoteService{clientID: 7}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableDataAging,
		map[string]interface{}{"client_name": "backup-client-01"})

	assert.Equal(t, result.Status, domain.StatusSuccess)
	assert.Equal(t, service.callCount, 2)
}

func TestDisableDataAgingUnknownClientFails(t *testing.T) {

	service := &stubRemoteService{clientID: 0}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableDataAging,
		map[string]interface{}{"client_name": "ghost-client"})

	assert.Equal(t, result.Status, domain.StatusFailed)
	if !strings.Contains(result.Message, "ghost-client") {
		t.Errorf("expected the client name in the failure message, got %q", result.Message)
	}
	assert.Equal(t, service.callCount, 1)
}

func TestDisableIdpRejectionSurfacesStatusCode(t *testing.T) {

	service := &stubRemoteService{
		idpEnabled:    true,
		idpDisableErr: &remote.RemoteError{StatusCode: 503, Body: "service unavailable"},
	}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableIdp,
		map[string]interface{}{"provider_name": "corp-saml"})

	assert.Equal(t, result.Status, domain.StatusFailed)
	assert.Equal(t, result.Summary.TotalObjects, 1)
	assert.Equal(t, result.Summary.TotalObjectsSuccessful, 0)
	if !strings.Contains(result.Message, "503") {
		t.Errorf("expected the status code in the failure message, got %q", result.Message)
	}
}

func TestDisableIdpAlreadyDisabledIsSuccess(t *testing.T) {

	service := &stubRemoteService{idpEnabled: false}
	executor := NewExecutor(service, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionDisableIdp, nil)

	assert.Equal(t, result.Status, domain.StatusSuccess)
	assert.Equal(t, service.callCount, 1)
}

func TestOnPollUsesDefaultContainerCount(t *testing.T) {

	ingestor := &stubIngestor{created: 1}
	executor := NewExecutor(&stubRemoteService{}, ingestor, 1)

	result := executor.Dispatch(context.Background(), domain.ActionOnPoll, map[string]interface{}{})

	assert.Equal(t, result.Status, domain.StatusSuccess)
	assert.Equal(t, ingestor.gotContainerCount, 1)
}

func TestOnPollHonorsContainerCountParam(t *testing.T) {

	ingestor := &stubIngestor{created: 3}
	executor := NewExecutor(&stubRemoteService{}, ingestor, 1)

	tests := []interface{}{float64(3), "3"}

	for _, value := range tests {
		result := executor.Dispatch(context.Background(), domain.ActionOnPoll,
			map[string]interface{}{"container_count": value})

		assert.Equal(t, result.Status, domain.StatusSuccess)
		assert.Equal(t, ingestor.gotContainerCount, 3)
		assert.Equal(t, result.Summary.TotalObjectsSuccessful, 3)
	}
}

func TestOnPollFailureReportsPartialProgress(t *testing.T) {

	ingestor := &stubIngestor{created: 2, err: errors.New("host platform unavailable")}
	executor := NewExecutor(&stubRemoteService{}, ingestor, 1)

	result := executor.Dispatch(context.Background(), domain.ActionOnPoll, nil)

	assert.Equal(t, result.Status, domain.StatusFailed)
	assert.Equal(t, result.Summary.TotalObjectsSuccessful, 2)
}

func TestUnknownActionFailsWithoutPanic(t *testing.T) {

	executor := NewExecutor(&stubRemoteService{}, &stubIngestor{}, 1)

	result := executor.Dispatch(context.Background(), domain.ActionID("reboot_datacenter"), nil)

	assert.Equal(t, result.Status, domain.StatusFailed)
	if !strings.Contains(result.Message, "reboot_datacenter") {
		t.Errorf("expected the action name in the failure message, got %q", result.Message)
	}
}
