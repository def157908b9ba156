package formmailer

import "time"

// Submission statuses returned by the webhook
const (
	StatusSent   = "sent"
	StatusLogged = "logged"
)

// SubmissionRequest is the webhook body.
type SubmissionRequest struct {
	Values []string `json:"values"`
}

// SubmissionResult is the outcome of one submission.
type SubmissionResult struct {
	Status string `json:"status"`
	// Kind and Reason are set when the submission was logged instead of confirmed.
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
	Sent   bool   `json:"-"`
}

// RegisterTriggerRequest names the source to bind.
type RegisterTriggerRequest struct {
	Source string `json:"source"`
}

// TriggerRegistration is the result of RegisterTrigger.
type TriggerRegistration struct {
	Source      string `json:"source"`
	HandlerName string `json:"handlerName"`
	Created     bool   `json:"created"`
}

// Trigger is a registered form-submit binding.
type Trigger struct {
	ID          string    `json:"id"`
	HandlerName string    `json:"handlerName"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}
