package domain

// ActionStatus is the tagged success/failure state of an ActionResult.
type ActionStatus string

const (
	StatusSuccess ActionStatus = "success"
	StatusFailed  ActionStatus = "failed"
)

// Summary carries the numeric outcome counts the host platform displays.
// TotalObjectsSuccessful is never greater than TotalObjects.
type Summary struct {
	TotalObjects           int `json:"total_objects"`
	TotalObjectsSuccessful int `json:"total_objects_successful"`
}

// ActionResult is the uniform contract every action and poll cycle produces.
// There is no other way for an action to report its outcome.
type ActionResult struct {
	Status     ActionStatus           `json:"status"`
	Message    string                 `json:"message"`
	Parameters map[string]interface{} `json:"parameters"`
	Summary    Summary                `json:"summary"`
}

// NewActionResult builds a result with explicit summary counts.  Callers with a
// single logical target should use NewSuccessResult/NewFailedResult instead.
func NewActionResult(status ActionStatus, message string, params map[string]interface{}, total, successful int) ActionResult {
	if successful > total {
		successful = total
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return ActionResult{
		Status:     status,
		Message:    message,
		Parameters: params,
		Summary:    Summary{TotalObjects: total, TotalObjectsSuccessful: successful},
	}
}

// NewSuccessResult reports a successful single-target action (summary 1/1).
func NewSuccessResult(message string, params map[string]interface{}) ActionResult {
	return NewActionResult(StatusSuccess, message, params, 1, 1)
}

// NewFailedResult reports a failed single-target action (summary 1/0).
func NewFailedResult(message string, params map[string]interface{}) ActionResult {
	return NewActionResult(StatusFailed, message, params, 1, 0)
}
