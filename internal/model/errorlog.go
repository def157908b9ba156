package model

import "time"

// ErrorLogHeader is the header row written once when the log table is created
var ErrorLogHeader = []string{"Timestamp", "Error Message", "Form Data"}

// ErrorLogEntry is one failed dispatch attempt
type ErrorLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	FormData  string    `json:"formData"`
}

// Row returns the entry as a table row matching ErrorLogHeader
func (e ErrorLogEntry) Row() []string {
	return []string{e.Timestamp.Format(time.RFC3339), e.Message, e.FormData}
}
