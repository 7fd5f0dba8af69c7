package digest

import (
	"bytes"
	"errors"
	htmltemplate "html/template"
	"sync"
	"text/template"

	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

type reportLine struct {
	Title     string
	URL       string
	Priority  string
	DueInfo   string
	Effort    string
	NextEvent string
}

type reportSection struct {
	Icon    string
	Heading string
	Total   int
	Lines   []reportLine
	More    int
	Empty   string
}

type report struct {
	Title    string
	Sections []reportSection
	Footer   string
}

func newReportSection(icon, heading string, views []TaskView, total int, empty string) reportSection {
	s := reportSection{Icon: icon, Heading: heading, Total: total, Empty: empty}
	for _, v := range views {
		line := reportLine{
			Title:   v.Title,
			URL:     v.URL,
			DueInfo: v.DueInfo,
			Effort:  v.Effort(),
		}
		if v.Priority != reclaim.PriorityUnknown {
			line.Priority = v.Priority.String()
		}
		if v.NextEvent != nil {
			line.NextEvent = "Nächster Termin: " + v.NextEvent.TimeUntil
		}
		s.Lines = append(s.Lines, line)
	}
	return s
}

func (s reportSection) withMore(n int) reportSection {
	s.More = n
	return s
}

var textReport = template.Must(template.New("text").Parse(`{{.Title}}
{{range .Sections}}
{{.Icon}} {{.Heading}} ({{.Total}})
{{range .Lines}}• {{.Title}}{{if .Priority}} [{{.Priority}}]{{end}}
  📅 {{.DueInfo}} | ⏱ {{.Effort}}{{if .NextEvent}} | 📆 {{.NextEvent}}{{end}}
{{else}}  {{.Empty}}
{{end}}{{if .More}}  … und {{.More}} weitere
{{end}}{{end}}
{{.Footer}}
`))

var htmlReport = htmltemplate.Must(htmltemplate.New("html").Parse(`<html>
<body style="font-family: sans-serif;">
<h1>{{.Title}}</h1>
{{range .Sections}}<h2>{{.Icon}} {{.Heading}} ({{.Total}})</h2>
{{if .Lines}}<ul>
{{range .Lines}}<li>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}{{if .Priority}} <strong>[{{.Priority}}]</strong>{{end}}<br>
📅 {{.DueInfo}} | ⏱ {{.Effort}}{{if .NextEvent}} | 📆 {{.NextEvent}}{{end}}</li>
{{end}}{{if .More}}<li><em>… und {{.More}} weitere</em></li>
{{end}}</ul>
{{else}}<p>{{.Empty}}</p>
{{end}}{{end}}<p>{{.Footer}}</p>
</body>
</html>
`))

// renderReport executes the text and HTML templates concurrently over the
// same report.
func renderReport(r report) (string, string, error) {
	var (
		text, html       bytes.Buffer
		textErr, htmlErr error
		wg               sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		textErr = textReport.Execute(&text, r)
	}()
	go func() {
		defer wg.Done()
		htmlErr = htmlReport.Execute(&html, r)
	}()
	wg.Wait()

	if err := errors.Join(textErr, htmlErr); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}
