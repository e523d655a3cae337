package report

import (
	"context"
	"encoding/json"
	"html/template"
	"io"

	"github.com/grailbio/base/file"
)

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<link rel="stylesheet" type="text/css" href="css/mystyle.css">
<title>{{.Title}}</title>
</head>
<body>
{{- range .Sections}}
<div class="result_block" id="{{.ID}}">
  <div class="subject_title">{{.Title}}
  {{- range .Highlights}}
    <span class="highlight">{{.Value}}</span> <span class="highlight2">{{.Label}}</span>
  {{- end}}
  </div>
  {{- if not .Available}}
  <div class="unavailable">Not available: {{.Note}}</div>
  {{- end}}
  {{- range .Figures}}
  <div class="figure">
    <div class="rhead">{{.Title}}{{if .PDF}} [<a href="{{.PDF}}">pdf</a>]{{end}}</div>
    {{- if .PNG}}
    <img src="{{.PNG}}">
    {{- end}}
  </div>
  {{- end}}
  {{- range .Tables}}
  <table class="data_table">
    <tr class="rhead"><td colspan="{{.Columns}}">{{.Title}}</td></tr>
    {{- if .Header}}
    <tr class="bold">{{range .Header}}<td>{{.}}</td>{{end}}</tr>
    {{- end}}
    {{- range .Rows}}
    <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{- end}}
  </table>
  {{- end}}
  {{- if .Links}}
  <table class="header_table">
    {{- range .Links}}
    <tr><td>{{.Label}}:</td><td class="raw_files"><a href="{{.Href}}">{{.Href}}</a></td></tr>
    {{- end}}
  </table>
  {{- end}}
  <div class="clear"></div>
</div>
<hr>
{{- end}}
</body>
</html>
`))

// WriteHTML writes doc as an HTML page.  Links in the page are relative to
// the workspace root.
func WriteHTML(w io.Writer, doc *Document) error {
	return page.Execute(w, doc)
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Style is the stylesheet the HTML page links to.
const Style = `body { font-family: Helvetica, Arial, sans-serif; font-size: 14px; margin: 20px; }
hr { border: 0; border-top: 1px solid #CCCCCC; margin: 20px 0; }
img { max-width: 100%; }
.clear { clear: both; }
.subject_title { font-size: 22px; font-weight: bold; margin-bottom: 10px; }
.highlight { color: #CC0000; font-size: 22px; margin-left: 20px; }
.highlight2 { color: #555555; font-size: 16px; font-weight: normal; }
.rhead { font-weight: bold; background-color: #EEEEEE; padding: 2px 4px; }
.bold { font-weight: bold; }
.figure { float: left; width: 48%; margin: 1%; }
.unavailable { color: #888888; font-style: italic; }
.data_table { border-collapse: collapse; margin: 10px; float: left; }
.data_table td { border: 1px solid #DDDDDD; padding: 2px 8px; text-align: right; }
.data_table td:first-child { text-align: left; }
.header_table td { padding: 2px 8px; }
.raw_files a { font-family: monospace; }
`

// WriteStyle writes Style to path.
func WriteStyle(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = io.WriteString(out.Writer(ctx), Style)
	return err
}
