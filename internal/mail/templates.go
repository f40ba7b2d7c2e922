package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	activationText = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/activation.txt.tmpl"))
	activationHTML = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/activation.html.tmpl"))
)

type activationData struct {
	Name string
	Code string
	Link string
}

func renderActivation(data activationData) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := activationText.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := activationHTML.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}

// ActivationLink appends token and email query parameters to base, keeping
// any query base already carries.
func ActivationLink(base, code, email string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", code)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
