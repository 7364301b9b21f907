package notify

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/hazz-dev/statusboard/internal/probe"
)

// Message is a rendered alert ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

const timeLayout = "2006-01-02 15:04:05 MST"

type messageData struct {
	Service    string
	StatusCode int
	Time       string
	Error      string
}

var textTmpl = template.Must(template.New("text").Parse(`Alert: {{.Service}} is not responding normally

Status Code: {{.StatusCode}}
Time: {{.Time}}
{{if .Error}}Error: {{.Error}}
{{end}}
This is an automated message from the status monitor.
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
</head>
<body style="font-family: sans-serif; line-height: 1.5; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #dc2626; margin-bottom: 20px;">Service Alert</h1>
    <p style="font-size: 16px; margin-bottom: 10px;"><strong>{{.Service}}</strong> is not responding normally</p>
    <div style="background: #f3f4f6; padding: 15px; border-radius: 5px; margin: 20px 0;">
      <p style="margin: 5px 0;"><strong>Status Code:</strong> {{.StatusCode}}</p>
      <p style="margin: 5px 0;"><strong>Time:</strong> {{.Time}}</p>
      {{- if .Error}}
      <p style="margin: 5px 0; color: #dc2626;"><strong>Error:</strong> {{.Error}}</p>
      {{- end}}
    </div>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">This is an automated message from the status monitor.</p>
  </div>
</body>
</html>
`))

// Compose renders the subject and both bodies for a failed probe.
func Compose(to string, r probe.CheckResult) Message {
	checkedAt := r.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}
	data := messageData{
		Service:    r.ServiceName,
		StatusCode: r.StatusCode,
		Time:       checkedAt.UTC().Format(timeLayout),
		Error:      r.Error,
	}

	var text, html strings.Builder
	// Both templates only reference fields of messageData, so execution
	// cannot fail on a strings.Builder.
	_ = textTmpl.Execute(&text, data)
	_ = htmlTmpl.Execute(&html, data)

	return Message{
		To:      to,
		Subject: subject(r),
		Text:    text.String(),
		HTML:    html.String(),
	}
}

func subject(r probe.CheckResult) string {
	return fmt.Sprintf("[%s] %s Status Alert - HTTP %d", r.Status, r.ServiceName, r.StatusCode)
}
