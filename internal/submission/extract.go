package submission

import (
	"errors"
	"fmt"

	"github.com/cyberelites/formmailer/internal/model"
)

// ErrMalformedSubmission is returned when a row is shorter than the form's fixed layout
var ErrMalformedSubmission = errors.New("malformed form submission")

// Fields are the values the confirmation flow needs from a response row
type Fields struct {
	Email    string
	FullName string
}

// GreetingName returns the name to greet the recipient with, falling back to the email
func (f Fields) GreetingName() string {
	if f.FullName != "" {
		return f.FullName
	}
	return f.Email
}

// Extract pulls the email and optional full name out of a submission by position.
// It performs no validation.
func Extract(sub model.FormSubmission) (Fields, error) {
	if len(sub.Values) <= model.FieldEmail {
		return Fields{}, fmt.Errorf("%w: expected at least %d values, got %d",
			ErrMalformedSubmission, model.FieldEmail+1, len(sub.Values))
	}

	fields := Fields{Email: sub.Values[model.FieldEmail]}
	if len(sub.Values) > model.FieldFullName {
		fields.FullName = sub.Values[model.FieldFullName]
	}
	return fields, nil
}
