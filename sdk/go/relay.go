package formmailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RelayConfig configures FormRelay.
type RelayConfig struct {
	// Source is the event source submissions are posted to.
	Source string

	// Fields are the HTML form field names in column order after the
	// timestamp. The first is the email address, the second the full name.
	// Default: []string{"email", "name"}
	Fields []string

	// RedirectURL is where the browser is sent after a submission was
	// accepted. When empty the SubmissionResult is written as JSON.
	RedirectURL string

	// ErrorHandler is an optional custom handler for relay failures.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

	now func() time.Time
}

// FormRelay returns an http.Handler that turns an HTML form post into a
// formmailer submission. The row is [timestamp, Fields...] so a site can feed
// the same pipeline as the spreadsheet form.
func (c *Client) FormRelay(cfg RelayConfig) http.Handler {
	if len(cfg.Fields) == 0 {
		cfg.Fields = []string{"email", "name"}
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			handleRelayError(w, r, cfg, fmt.Errorf("%w: %v", ErrInvalidForm, err))
			return
		}

		values := make([]string, 0, len(cfg.Fields)+1)
		values = append(values, cfg.now().UTC().Format(time.RFC3339))
		present := false
		for _, field := range cfg.Fields {
			v := r.PostForm.Get(field)
			if v != "" {
				present = true
			}
			values = append(values, v)
		}
		if !present {
			handleRelayError(w, r, cfg, ErrNoValues)
			return
		}

		result, err := c.Submit(r.Context(), cfg.Source, values)
		if err != nil {
			handleRelayError(w, r, cfg, err)
			return
		}

		if cfg.RedirectURL != "" {
			http.Redirect(w, r, cfg.RedirectURL, http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	})
}

func handleRelayError(w http.ResponseWriter, r *http.Request, cfg RelayConfig, err error) {
	if cfg.ErrorHandler != nil {
		cfg.ErrorHandler(w, r, err)
		return
	}

	code := http.StatusBadGateway
	errCode := "upstream_error"
	message := "The submission could not be delivered"

	switch {
	case errors.Is(err, ErrNoValues), errors.Is(err, ErrInvalidForm):
		code = http.StatusBadRequest
		errCode = "invalid_request"
		message = "Invalid form submission"
	case IsTriggerNotFound(err):
		code = http.StatusNotFound
		errCode = "trigger_not_found"
		message = "This form is not accepting submissions"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    errCode,
			"message": message,
		},
	})
}
