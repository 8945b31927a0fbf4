package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// NoticeJob is the payload queued for the notification worker when a loan
// goes past its due date.
type NoticeJob struct {
	To       string    `json:"to"`
	UserName string    `json:"user_name"`
	Title    string    `json:"title"`
	Code     string    `json:"code"`
	DueDate  time.Time `json:"due_date"`
}

var noticeTmpl = template.Must(template.New("overdue_notice").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Overdue loan notice</h2>
  <p>Hello {{.UserName}},</p>
  <p>The item below is past its due date. Please return it to the library as soon as possible.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><b>Title</b></td><td>{{.Title}}</td></tr>
    <tr><td><b>Code</b></td><td>{{.Code}}</td></tr>
    <tr><td><b>Due date</b></td><td>{{.DueDate.Format "2006-01-02"}}</td></tr>
  </table>
  <p>If you have already returned this item, please disregard this message.</p>
  <p>University Library</p>
</body>
</html>`))

// RenderOverdueNotice produces the subject, plain-text and HTML bodies for an
// overdue notice email.
func RenderOverdueNotice(job NoticeJob) (subject, text, html string, err error) {
	subject = fmt.Sprintf("Overdue loan: %s", job.Title)
	text = fmt.Sprintf(
		"Hello %s,\n\nThe item %q (code %s) was due on %s. Please return it to the library as soon as possible.\n\nUniversity Library",
		job.UserName, job.Title, job.Code, job.DueDate.Format("2006-01-02"),
	)
	var buf bytes.Buffer
	if err = noticeTmpl.Execute(&buf, job); err != nil {
		return "", "", "", err
	}
	return subject, text, buf.String(), nil
}
