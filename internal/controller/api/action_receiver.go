package api

import (
	"context"
	"net/http"

	"github.com/commvault-security/securityiq-connector/internal/config"
	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/middlewares"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"
	"github.com/redhatinsights/platform-go-middlewares/request_id"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ActionDispatcher runs one action and reports its outcome as an ActionResult.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action domain.ActionID, params map[string]interface{}) domain.ActionResult
}

// DispatcherFactory builds a dispatcher bound to the asset supplied with the
// request.  The connector holds no credentials of its own, every invocation
// carries the endpoint and tokens it should act against.
type DispatcherFactory func(asset domain.AssetConfig) ActionDispatcher

type ActionReceiver struct {
	dispatcherFactory DispatcherFactory
	router            *mux.Router
	config            *config.Config
	urlPrefix         string
}

func NewActionReceiver(factory DispatcherFactory, r *mux.Router, urlPrefix string, cfg *config.Config) *ActionReceiver {
	return &ActionReceiver{
		dispatcherFactory: factory,
		router:            r,
		config:            cfg,
		urlPrefix:         urlPrefix,
	}
}

func (ar *ActionReceiver) Routes() {
	mmw := &middlewares.MetricsMiddleware{}
	amw := &middlewares.AuthMiddleware{Secrets: ar.config.ServiceToServiceCredentials}

	securedSubRouter := ar.router.PathPrefix(ar.urlPrefix).Subrouter()
	securedSubRouter.Use(logger.AccessLoggerMiddleware,
		mmw.RecordHTTPMetrics,
		amw.Authenticate)

	securedSubRouter.HandleFunc("/action", ar.handleAction()).Methods(http.MethodPost)
}

type actionRequest struct {
	Action     string                 `json:"action" validate:"required"`
	Asset      domain.AssetConfig     `json:"asset" validate:"required"`
	Parameters map[string]interface{} `json:"parameters"`
}

func (ar *ActionReceiver) handleAction() http.HandlerFunc {

	return func(w http.ResponseWriter, req *http.Request) {

		principal, _ := middlewares.GetPrincipal(req.Context())
		requestId := request_id.GetReqID(req.Context())
		requestLogger := logger.Log.WithFields(logrus.Fields{
			"client_id":  principal.GetClientID(),
			"request_id": requestId})

		var request actionRequest

		body := http.MaxBytesReader(w, req.Body, 1048576)

		if err := decodeJSON(body, &request); err != nil {
			errMsg := "Unable to process json input"
			requestLogger.WithFields(logrus.Fields{"error": err}).Debug(errMsg)
			errorResponse := errorResponse{Title: errMsg,
				Status: http.StatusBadRequest,
				Detail: err.Error()}
			writeJSONResponse(w, errorResponse.Status, errorResponse)
			return
		}

		requestLogger = requestLogger.WithFields(logrus.Fields{"action": request.Action})
		requestLogger.Info("Running action")

		dispatcher := ar.dispatcherFactory(request.Asset)

		// action failures are a valid outcome, the result carries the status
		result := dispatcher.Dispatch(req.Context(), domain.ActionID(request.Action), request.Parameters)

		requestLogger.WithFields(logrus.Fields{"status": result.Status}).Info("Action complete")

		writeJSONResponse(w, http.StatusOK, result)
	}
}
