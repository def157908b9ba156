package email

import (
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// ConfirmationSubject is the default subject of the confirmation email.
const ConfirmationSubject = "Thank You for Your Submission!"

var (
	strictPolicy *bluemonday.Policy
	policyOnce   sync.Once
)

func sanitize(s string) string {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy.Sanitize(s)
}

// Branding is the club identity shown in the message.
type Branding struct {
	// Name signs the message off.
	Name string
	// LinkText is the anchor text of the website link; empty uses Name.
	LinkText string
	URL      string
}

// Renderer builds the confirmation message bodies.
type Renderer struct {
	branding     Branding
	escapeValues bool
}

// NewRenderer creates a Renderer. When escapeValues is false, submitted values are
// interpolated into the HTML verbatim.
func NewRenderer(branding Branding, escapeValues bool) *Renderer {
	if branding.LinkText == "" {
		branding.LinkText = branding.Name
	}
	return &Renderer{
		branding:     branding,
		escapeValues: escapeValues,
	}
}

// Render returns the HTML body greeting fullnameOrEmail and echoing recordedEmail.
func (r *Renderer) Render(fullnameOrEmail, recordedEmail string) string {
	name, addr := fullnameOrEmail, recordedEmail
	if r.escapeValues {
		name, addr = sanitize(name), sanitize(addr)
	}

	return fmt.Sprintf(`<html>
    <body>
        <p><strong>Hello %s</strong>,</p>
        <p>We have recorded your response for <strong>%s</strong>.</p>
        <p>Here's the link to the club website <em><a href="%s" target="_blank">%s</a></em>. Explore more about us here.</p>
        <p>Thank you!</p>
        <p>Best regards,<br><strong>%s</strong></p>
    </body>
</html>`, name, addr, r.branding.URL, r.branding.LinkText, r.branding.Name)
}

// RenderText returns the plain-text alternative of Render.
func (r *Renderer) RenderText(fullnameOrEmail, recordedEmail string) string {
	return fmt.Sprintf(`Hello %s,

We have recorded your response for %s.

Here's the link to the club website: %s. Explore more about us here.

Thank you!

Best regards,
%s`, fullnameOrEmail, recordedEmail, r.branding.URL, r.branding.Name)
}
