// Package templates renders the HTMX fragments returned by the pricing API.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissable error box with the support code and, when
// present, the individual problems (missing columns or failing rows).
func ErrorAlert(message, action, code string, details []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if len(details) > 0 {
			b.WriteString(`<ul class="alert-details">`)
			for _, d := range details {
				fmt.Fprintf(&b, `<li>%s</li>`, templ.EscapeString(d))
			}
			b.WriteString(`</ul>`)
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// SubmissionSummary renders the confirmation shown after pricing is saved.
func SubmissionSummary(groupID, groupName string, itemCount int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		noun := "items"
		if itemCount == 1 {
			noun = "item"
		}

		var b strings.Builder
		b.WriteString(`<div class="alert alert-success" role="status">`)
		fmt.Fprintf(&b, `<p class="alert-message">Saved %d pricing %s to %s</p>`,
			itemCount, noun, templ.EscapeString(groupName))
		fmt.Fprintf(&b, `<p class="alert-code">Group ID: %s</p>`, templ.EscapeString(groupID))
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
