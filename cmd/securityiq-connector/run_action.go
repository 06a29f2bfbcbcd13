package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/commvault-security/securityiq-connector/internal/config"
	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"
)

type actionFileContents struct {
	Action     string                 `json:"action"`
	Asset      domain.AssetConfig     `json:"asset"`
	Parameters map[string]interface{} `json:"parameters"`
}

// runActionFromFile runs one action against the asset described in the file
// and prints the result to stdout.  Useful for trying out an endpoint without
// standing up the full server.
func runActionFromFile(filename string) {

	logger.InitLogger()
	defer logger.FlushLogger()

	cfg := config.GetConfig()

	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		logger.LogFatalError("Unable to read action request file", err)
	}

	var request actionFileContents
	if err := json.Unmarshal(fileBytes, &request); err != nil {
		logger.LogFatalError("Unable to parse action request file", err)
	}

	cursorStore := buildCursorStore(cfg)

	dispatcherFactory := buildDispatcherFactory(cfg, cursorStore, nil)
	dispatcher := dispatcherFactory(request.Asset)

	result := dispatcher.Dispatch(context.Background(), domain.ActionID(request.Action), request.Parameters)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.LogFatalError("Unable to encode action result", err)
	}

	fmt.Println(string(output))
}
