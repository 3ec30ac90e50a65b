package notify

import (
	"bytes"
	"html/template"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

var (
	confirmTemplate = template.Must(template.New("confirm").Parse(
		`<p>Hi {{.DisplayName}},</p>` +
			`<p>Please confirm your email address by following <a href="{{.Link}}">this link</a>.</p>`))

	passwordChangedTemplate = template.Must(template.New("password").Parse(
		`<p>Hi {{.DisplayName}},</p>` +
			`<p>The password for your account was changed. If you did not do this, contact support immediately.</p>`))

	bodyPolicy = bluemonday.UGCPolicy()
)

const (
	confirmSubject         = "Confirm your email"
	passwordChangedSubject = "Your password was changed"
)

// ConfirmLink builds the callback URL carrying the user id and code.
func ConfirmLink(base, userID, code string) string {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("code", code)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" {
		return base + "?" + q.Encode()
	}
	existing := u.Query()
	for k, v := range q {
		existing[k] = v
	}
	u.RawQuery = existing.Encode()
	return u.String()
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return bodyPolicy.Sanitize(buf.String()), nil
}

func ConfirmationBody(displayName, link string) (string, error) {
	return render(confirmTemplate, struct{ DisplayName, Link string }{displayName, link})
}

func PasswordChangedBody(displayName string) (string, error) {
	return render(passwordChangedTemplate, struct{ DisplayName string }{displayName})
}
