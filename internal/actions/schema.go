package actions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/commvault-security/securityiq-connector/internal/domain"
)

// ValidationError reports a malformed or missing action parameter.  The
// dispatcher rejects the action before any remote call is made.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

type paramKind int

const (
	paramString paramKind = iota
	paramNumber
)

type paramSpec struct {
	name     string
	kind     paramKind
	required bool
}

// actionSchemas declares the parameters each action accepts.  Parameters the
// host platform sends but the connector does not use (start_time, end_time,
// container_id, artifact_count) are simply not listed and pass through
// untouched.
var actionSchemas = map[domain.ActionID][]paramSpec{
	domain.ActionTestConnectivity: {},
	domain.ActionDisableUser: {
		{name: "user_email", kind: paramString, required: true},
	},
	domain.ActionDisableDataAging: {
		{name: "client_name", kind: paramString, required: true},
	},
	domain.ActionDisableIdp: {
		{name: "provider_name", kind: paramString, required: false},
	},
	domain.ActionOnPoll: {
		{name: "container_count", kind: paramNumber, required: false},
	},
}

// validateParams checks the supplied parameters against the action's schema.
// A required string parameter that is present but empty counts as missing.
func validateParams(action domain.ActionID, params map[string]interface{}) error {

	schema, known := actionSchemas[action]
	if !known {
		return &ValidationError{Param: "action", Reason: fmt.Sprintf("unsupported action %q", action)}
	}

	for _, spec := range schema {
		value, present := params[spec.name]

		if !present {
			if spec.required {
				return &ValidationError{Param: spec.name, Reason: "required parameter is missing"}
			}
			continue
		}

		switch spec.kind {
		case paramString:
			str, ok := value.(string)
			if !ok {
				return &ValidationError{Param: spec.name, Reason: "expected a string value"}
			}
			if spec.required && strings.TrimSpace(str) == "" {
				return &ValidationError{Param: spec.name, Reason: "required parameter is empty"}
			}
		case paramNumber:
			if _, err := numberParam(params, spec.name, 0); err != nil {
				return err
			}
		}
	}

	return nil
}

func stringParam(params map[string]interface{}, name string) string {
	if value, ok := params[name].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// numberParam reads a numeric parameter that may arrive as a JSON number or a
// numeric string, the host platform sends both.
func numberParam(params map[string]interface{}, name string, defaultValue int) (int, error) {
	value, present := params[name]
	if !present {
		return defaultValue, nil
	}

	switch typed := value.(type) {
	case float64:
		return int(typed), nil
	case int:
		return typed, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return defaultValue, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, &ValidationError{Param: name, Reason: "expected a numeric value"}
		}
		return parsed, nil
	default:
		return 0, &ValidationError{Param: name, Reason: "expected a numeric value"}
	}
}
