package model

import "time"

// Trigger binds a form-submit event source to a handler entry point
type Trigger struct {
	ID          string    `json:"id"`
	HandlerName string    `json:"handlerName"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Matches reports whether the trigger is bound to handlerName for source
func (t Trigger) Matches(handlerName, source string) bool {
	return t.HandlerName == handlerName && t.Source == source
}
