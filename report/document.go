// Package report turns the artifacts of a finished analysis into the report
// document: Load gathers the statistics, Render lays them out as a
// format-independent Document, and WriteHTML and WriteJSON serialise it.
package report

// Section ids, in document order.
const (
	MetadataSection     = "metadata"
	AlignmentSection    = "alignment"
	AnnotationSection   = "annotation"
	CoverageSection     = "coverage"
	RarefractionSection = "rarefraction"
	ErrorsSection       = "errors"
	RawDataSection      = "raw-data"
)

// Document is a rendered report.
type Document struct {
	Title    string     `json:"title"`
	Sections []*Section `json:"sections"`
}

// Section returns the section with the given id, or nil.
func (d *Document) Section(id string) *Section {
	for _, s := range d.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Section is one part of the report.  A section whose inputs were not
// produced (e.g. error analysis without a reference) is present but not
// Available, with Note saying why.
type Section struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Available  bool        `json:"available"`
	Note       string      `json:"note,omitempty"`
	Highlights []Highlight `json:"highlights,omitempty"`
	Tables     []Table     `json:"tables,omitempty"`
	Figures    []Figure    `json:"figures,omitempty"`
	Links      []Link      `json:"links,omitempty"`
}

// Highlight returns the value of the highlight with the given label.
func (s *Section) Highlight(label string) (string, bool) {
	for _, h := range s.Highlights {
		if h.Label == label {
			return h.Value, true
		}
	}
	return "", false
}

// Table returns the table with the given title, or nil.
func (s *Section) Table(title string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Title == title {
			return &s.Tables[i]
		}
	}
	return nil
}

// Highlight is a headline statistic.
type Highlight struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Table is a titled grid of display strings.
type Table struct {
	Title  string     `json:"title"`
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// Columns returns the width of the table: the widest of its header and rows,
// and at least 1.
func (t Table) Columns() int {
	n := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

// Figure is a plot.  PNG is the embedded image and PDF the printable
// version; either may be empty when that file was not produced.
type Figure struct {
	Title string `json:"title"`
	PNG   string `json:"png,omitempty"`
	PDF   string `json:"pdf,omitempty"`
}

// Link points at a raw artifact.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}
