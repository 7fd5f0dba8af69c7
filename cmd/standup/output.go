package main

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

const (
	formatConsole  = "console"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

// resolveOutput maps the --output value to a file path (empty for stdout)
// and a format. Unknown values fall back to the console.
func resolveOutput(output string) (string, string) {
	switch strings.ToLower(output) {
	case "", formatConsole:
		return "", formatConsole
	case formatJSON:
		return "", formatJSON
	case formatYAML, "yml":
		return "", formatYAML
	case "md", formatMarkdown:
		return "", formatMarkdown
	case formatHTML:
		return "", formatHTML
	}

	switch strings.ToLower(filepath.Ext(output)) {
	case ".json":
		return output, formatJSON
	case ".yaml", ".yml":
		return output, formatYAML
	case ".md", ".txt":
		return output, formatMarkdown
	case ".html", ".htm":
		return output, formatHTML
	}
	return "", formatConsole
}

func render(w io.Writer, r *report, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case formatMarkdown:
		return markdownTmpl.Execute(w, r)
	case formatHTML:
		return htmlTmpl.Execute(w, r)
	default:
		_, err := io.WriteString(w, renderConsole(r))
		return err
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	countStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginTop(1)

	priorityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func renderConsole(r *report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Erstellt: " + r.GeneratedAt.Format("02.01.2006 15:04")))
	b.WriteString("\n")

	counts := make([]string, 0, len(r.Counts))
	for _, c := range r.Counts {
		counts = append(counts, fmt.Sprintf("%s: %d", c.Label, c.Value))
	}
	b.WriteString(countStyle.Render(strings.Join(counts, "  ")))
	b.WriteString("\n")

	for _, s := range r.Sections {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s (%d)", s.Icon, s.Heading, s.Total)))
		b.WriteString("\n")
		if len(s.Tasks) == 0 {
			b.WriteString(dimStyle.Render("  keine Aufgaben"))
			b.WriteString("\n")
			continue
		}
		for _, t := range s.Tasks {
			b.WriteString("  • " + t.Title)
			if t.Priority != "" {
				b.WriteString(" " + priorityStyle.Render("["+t.Priority+"]"))
			}
			b.WriteString("\n")
			detail := fmt.Sprintf("    📅 %s | ⏱ %s", t.DueInfo, t.Effort)
			if t.NextEvent != "" {
				detail += " | 📆 " + t.NextEvent
			}
			b.WriteString(dimStyle.Render(detail))
			b.WriteString("\n")
		}
		if s.More > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  … und %d weitere", s.More)))
			b.WriteString("\n")
		}
	}

	if r.Footer != "" {
		b.WriteString("\n" + r.Footer + "\n")
	}
	return b.String()
}

var markdownTmpl = template.Must(template.New("report").Parse(`# {{.Title}}
**Erstellt:** {{.GeneratedAt.Format "02.01.2006 15:04"}}

| Kategorie | Anzahl |
|-----------|--------|
{{range .Counts}}| {{.Label}} | {{.Value}} |
{{end}}
{{range .Sections}}
## {{.Icon}} {{.Heading}} ({{.Total}})
{{range .Tasks}}
- {{if .URL}}[{{.Title}}]({{.URL}}){{else}}{{.Title}}{{end}}{{if .Priority}} **{{.Priority}}**{{end}}
  - 📅 {{.DueInfo}} | ⏱ {{.Effort}}{{if .NextEvent}} | 📆 {{.NextEvent}}{{end}}
{{else}}
_keine Aufgaben_
{{end}}{{if .More}}
… und {{.More}} weitere
{{end}}{{end}}
{{if .Footer}}{{.Footer}}
{{end}}`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif;">
<h1>{{.Title}}</h1>
<p>Erstellt: {{.GeneratedAt.Format "02.01.2006 15:04"}}</p>
<table>
{{range .Counts}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{range .Sections}}<h2>{{.Icon}} {{.Heading}} ({{.Total}})</h2>
<ul>
{{range .Tasks}}<li>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}{{if .Priority}} <strong>[{{.Priority}}]</strong>{{end}}<br>
📅 {{.DueInfo}} | ⏱ {{.Effort}}{{if .NextEvent}} | 📆 {{.NextEvent}}{{end}}</li>
{{else}}<li><em>keine Aufgaben</em></li>
{{end}}{{if .More}}<li><em>… und {{.More}} weitere</em></li>
{{end}}</ul>
{{end}}{{if .Footer}}<p>{{.Footer}}</p>{{end}}
</body>
</html>
`))
