package cases

import (
	"context"
	"fmt"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"

	"github.com/google/uuid"
)

// CaseCreator submits one case (container) to the host platform per new alert
// record.  It returns the platform-assigned case id.
type CaseCreator interface {
	CreateCase(ctx context.Context, req domain.CaseCreationRequest) (string, error)
}

// HostInteropError means the host platform rejected or failed a case-creation
// call.  It is surfaced to the action boundary like any other failure, the
// connector never raises past it.
type HostInteropError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *HostInteropError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("host platform %s call failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("host platform %s call failed: %v", e.Op, e.Err)
}

func (e *HostInteropError) Unwrap() error {
	return e.Err
}

// FakeCaseCreator logs the case instead of creating it.  Used by tests and
// local development.
type FakeCaseCreator struct {
}

func (f *FakeCaseCreator) CreateCase(ctx context.Context, req domain.CaseCreationRequest) (string, error) {
	caseID := uuid.NewString()
	logger.Log.Infof("FAKE ... creating case %s for alert %s (%s)", caseID, req.SourceRecordID, req.Title)
	return caseID, nil
}
