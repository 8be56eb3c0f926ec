package http

import (
	"html/template"
	"net/http"
)

var consentTmpl = template.Must(template.New("consent").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Email sharing consent</title>
</head>
<body>
<main>
<h1>Share your email address?</h1>
<p>The quiz platform can use your email address to keep your participation
linked to you across sessions. You can decline and continue anonymously.</p>
<p>
<a href="/consent?hasConsented=1{{if .RedirectURL}}&amp;redirectUrl={{.RedirectURL}}{{end}}">I agree</a>
&nbsp;
<a href="/consent?hasConsented=0{{if .RedirectURL}}&amp;redirectUrl={{.RedirectURL}}{{end}}">I decline</a>
</p>
</main>
</body>
</html>
`))

func renderConsentPrompt(w http.ResponseWriter, redirectURL string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = consentTmpl.Execute(w, struct{ RedirectURL string }{template.URLQueryEscaper(redirectURL)})
}
