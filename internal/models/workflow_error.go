package models

// ErrorKind classifies a weather acquisition failure. The kind decides how
// the failure is surfaced: provider errors raise a modal alert, network
// errors are only recorded in state.
type ErrorKind string

const (
	ErrPermissionDenied ErrorKind = "permission_denied"
	ErrLocationTimeout  ErrorKind = "location_timeout"
	ErrNetwork          ErrorKind = "network_error"
	ErrProvider         ErrorKind = "provider_error"
	ErrUnknown          ErrorKind = "unknown"
)

type WorkflowError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *WorkflowError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// AlertActionOpenSearch tells the presentation layer to hand off to manual
// city search when the alert is confirmed.
const AlertActionOpenSearch = "open_search"

// Alert is a blocking modal message for the user.
type Alert struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	ConfirmText string `json:"confirm_text"`
	Action      string `json:"action,omitempty"`
}
