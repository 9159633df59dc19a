package app

// Codes d'erreur stables portés par FlowError.
const (
	CodeNetwork       = "network_error"
	CodeHTTPStatus    = "http_status"
	CodeBadData       = "bad_data"
	CodeQuota         = "quota_exceeded"
	CodeLoginRequired = "login_required"
	CodeNotReady      = "not_ready"
	CodeValidation    = "validation"
)

// FlowError est le descripteur d'échec d'un sous-flux. Les sous-flux ne
// lèvent jamais vers la couche de rendu: chaque opération asynchrone se
// résout en succès ou en FlowError que l'UI affiche en bandeau dismissible.
//
// Message est destiné à l'utilisateur (en bulgare, comme le produit).
type FlowError struct {
	Code    string `json:"code"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *FlowError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *FlowError) Unwrap() error { return e.Err }

func networkFlowError(message string) *FlowError {
	return &FlowError{Code: CodeNetwork, Message: message}
}

func statusFlowError(status int, message string) *FlowError {
	return &FlowError{Code: CodeHTTPStatus, Status: status, Message: message}
}
