package actions

import (
	"context"
	"fmt"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"
	"github.com/commvault-security/securityiq-connector/internal/remote"

	"github.com/sirupsen/logrus"
)

// RemoteService is the slice of the remote backup service the action
// handlers use.  The production implementation is remote.Client.
type RemoteService interface {
	Probe(ctx context.Context) error
	FindUserByEmail(ctx context.Context, email string) (*remote.User, error)
	IsUserEnabled(ctx context.Context, userID int) (bool, error)
	DisableUser(ctx context.Context, userID int) error
	LookupClientID(ctx context.Context, clientName string) (int, error)
	DisableDataAging(ctx context.Context, clientID int) error
	GetIdentityProvider(ctx context.Context, providerName string) (bool, error)
	DisableIdentityProvider(ctx context.Context, providerName string) error
}

// Ingestor runs one bounded poll cycle, returning the number of cases created.
type Ingestor interface {
	Run(ctx context.Context, containerCount int) (int, error)
}

// Executor dispatches one action at a time against a single remote endpoint.
// Every outcome, including validation failures and panics in a handler, is
// reported as an ActionResult, the caller never sees an error or a panic.
type Executor struct {
	remote                RemoteService
	ingestor              Ingestor
	defaultContainerCount int
}

func NewExecutor(remoteService RemoteService, ingestor Ingestor, defaultContainerCount int) *Executor {
	if defaultContainerCount < 1 {
		defaultContainerCount = 1
	}
	return &Executor{
		remote:                remoteService,
		ingestor:              ingestor,
		defaultContainerCount: defaultContainerCount,
	}
}

func (e *Executor) Dispatch(ctx context.Context, action domain.ActionID, params map[string]interface{}) (result domain.ActionResult) {

	defer func() {
		if panicValue := recover(); panicValue != nil {
			logger.Log.WithFields(logrus.Fields{
				"action": action,
				"panic":  panicValue,
			}).Error("Action handler panicked")
			result = domain.NewFailedResult(fmt.Sprintf("internal error while handling action %s", action), params)
		}
	}()

	logger.Log.WithFields(logrus.Fields{"action": action}).Info("Dispatching action")

	if err := validateParams(action, params); err != nil {
		return domain.NewFailedResult(err.Error(), params)
	}

	switch action {
	case domain.ActionTestConnectivity:
		return e.handleTestConnectivity(ctx, params)
	case domain.ActionDisableUser:
		return e.handleDisableUser(ctx, params)
	case domain.ActionDisableDataAging:
		return e.handleDisableDataAging(ctx, params)
	case domain.ActionDisableIdp:
		return e.handleDisableIdp(ctx, params)
	case domain.ActionOnPoll:
		return e.handleOnPoll(ctx, params)
	default:
		return domain.NewFailedResult(fmt.Sprintf("unsupported action %q", action), params)
	}
}

func (e *Executor) handleTestConnectivity(ctx context.Context, params map[string]interface{}) domain.ActionResult {
	if err := e.remote.Probe(ctx); err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Test connectivity failed: %s", err), params)
	}
	return domain.NewSuccessResult("Test connectivity passed", params)
}

func (e *Executor) handleDisableUser(ctx context.Context, params map[string]interface{}) domain.ActionResult {

	userEmail := stringParam(params, "user_email")

	user, err := e.remote.FindUserByEmail(ctx, userEmail)
	if err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling user: %s", err), params)
	}
	if user == nil {
		return domain.NewFailedResult(fmt.Sprintf("Could not find user with email [%s]", userEmail), params)
	}

	enabled, err := e.remote.IsUserEnabled(ctx, user.UserEntity.UserID)
	if err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling user: %s", err), params)
	}
	if !enabled {
		return domain.NewSuccessResult(fmt.Sprintf("User [%s] is already disabled", userEmail), params)
	}

	if err := e.remote.DisableUser(ctx, user.UserEntity.UserID); err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling user: %s", err), params)
	}

	return domain.NewSuccessResult(fmt.Sprintf("User [%s] is disabled", userEmail), params)
}

func (e *Executor) handleDisableDataAging(ctx context.Context, params map[string]interface{}) domain.ActionResult {

	clientName := stringParam(params, "client_name")

	clientID, err := e.remote.LookupClientID(ctx, clientName)
	if err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling data aging: %s", err), params)
	}
	if clientID == 0 {
		return domain.NewFailedResult(fmt.Sprintf("Invalid client [%s]", clientName), params)
	}

	if err := e.remote.DisableDataAging(ctx, clientID); err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling data aging: %s", err), params)
	}

	return domain.NewSuccessResult(fmt.Sprintf("Data aging is disabled for client [%s]", clientName), params)
}

func (e *Executor) handleDisableIdp(ctx context.Context, params map[string]interface{}) domain.ActionResult {

	providerName := stringParam(params, "provider_name")

	enabled, err := e.remote.GetIdentityProvider(ctx, providerName)
	if err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling provider: %s", err), params)
	}
	if !enabled {
		return domain.NewSuccessResult(fmt.Sprintf("Provider [%s] is already disabled", providerName), params)
	}

	if err := e.remote.DisableIdentityProvider(ctx, providerName); err != nil {
		return domain.NewFailedResult(fmt.Sprintf("Error while disabling provider: %s", err), params)
	}

	return domain.NewSuccessResult(fmt.Sprintf("Provider [%s] is disabled", providerName), params)
}

func (e *Executor) handleOnPoll(ctx context.Context, params map[string]interface{}) domain.ActionResult {

	containerCount, err := numberParam(params, "container_count", e.defaultContainerCount)
	if err != nil {
		return domain.NewFailedResult(err.Error(), params)
	}

	created, runErr := e.ingestor.Run(ctx, containerCount)
	if runErr != nil {
		return domain.NewActionResult(domain.StatusFailed,
			fmt.Sprintf("Polling failed: %s", runErr), params, created+1, created)
	}

	return domain.NewActionResult(domain.StatusSuccess,
		fmt.Sprintf("Polling complete, %d cases created", created), params, created, created)
}
