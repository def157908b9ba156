package model

import (
	"encoding/json"
	"time"
)

// Positions of the fields the form writes into each response row
const (
	FieldTimestamp = 0
	FieldEmail     = 1
	FieldFullName  = 2
)

// FormSubmission is one response row as submitted, in column order
type FormSubmission struct {
	Source     string    `json:"source"`
	Values     []string  `json:"values"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// RawJSON serializes the submitted values as a JSON array
func (s FormSubmission) RawJSON() string {
	values := s.Values
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}
