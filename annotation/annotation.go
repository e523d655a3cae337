// Package annotation tabulates how many reads were assigned to each reference
// gene and transcript, and how completely.
//
// The input is the per-read annotation table written by the read annotation
// stage: one tab-separated line per read holding the read id, an unused
// column, the gene id, the transcript id and the match kind.
package annotation

// MatchKind classifies how fully a read's alignment covers its assigned
// transcript.
type MatchKind int

const (
	// None means the read was not usefully assigned.
	None MatchKind = iota
	// Partial means the read covers part of the transcript.
	Partial
	// Full means the read covers the transcript end to end.
	Full
)

// ParseMatchKind maps the match kind column to a MatchKind.  Anything other
// than "partial" or "full" is None.
func ParseMatchKind(s string) MatchKind {
	switch s {
	case "partial":
		return Partial
	case "full":
		return Full
	}
	return None
}

func (k MatchKind) String() string {
	switch k {
	case Partial:
		return "partial"
	case Full:
		return "full"
	}
	return "none"
}

// Record is one line of the annotation table.
type Record struct {
	ReadID     string
	Gene       string
	Transcript string
	Kind       MatchKind
}

// Summary counts the reads assigned to one gene or transcript.
type Summary struct {
	// ID is the gene or transcript id.
	ID string
	// Gene is the gene of a transcript summary; for gene summaries it equals ID.
	Gene    string
	Partial int64
	Full    int64
}

// Total returns Partial+Full.
func (s Summary) Total() int64 { return s.Partial + s.Full }

// Summaries is a set of Summary keyed by id that remembers the order in which
// ids were first seen.
type Summaries struct {
	list  []Summary
	index map[string]int
}

// NewSummaries creates an empty set.
func NewSummaries() *Summaries {
	return &Summaries{index: map[string]int{}}
}

func (s *Summaries) add(id, gene string, kind MatchKind) {
	i, ok := s.index[id]
	if !ok {
		i = len(s.list)
		s.index[id] = i
		s.list = append(s.list, Summary{ID: id, Gene: gene})
	}
	switch kind {
	case Partial:
		s.list[i].Partial++
	case Full:
		s.list[i].Full++
	}
}

// Get returns the summary for id.
func (s *Summaries) Get(id string) (Summary, bool) {
	i, ok := s.index[id]
	if !ok {
		return Summary{}, false
	}
	return s.list[i], true
}

// Len returns the number of ids.
func (s *Summaries) Len() int { return len(s.list) }

// All returns the summaries in insertion order.  The caller must not modify
// the result.
func (s *Summaries) All() []Summary { return s.list }

// Tally holds the number of distinct genes and transcripts seen in the
// annotation table.  Any counts every record regardless of its match kind;
// Full counts only full-length records.
type Tally struct {
	GenesAny        int
	GenesFull       int
	TranscriptsAny  int
	TranscriptsFull int
}

// Ingested is the result of reading an annotation table.
type Ingested struct {
	// Genes and Transcripts summarise records whose kind is not None.
	Genes       *Summaries
	Transcripts *Summaries
	Tally       Tally
	// Records is the number of records read, of any kind.
	Records int64

	genesAny, genesFull, txAny, txFull map[string]struct{}
}

// NewIngested creates an empty result to Add records to.
func NewIngested() *Ingested {
	return &Ingested{
		Genes:       NewSummaries(),
		Transcripts: NewSummaries(),
		genesAny:    map[string]struct{}{},
		genesFull:   map[string]struct{}{},
		txAny:       map[string]struct{}{},
		txFull:      map[string]struct{}{},
	}
}

// Add accumulates one record.
func (in *Ingested) Add(r Record) {
	in.Records++
	in.genesAny[r.Gene] = struct{}{}
	in.txAny[r.Transcript] = struct{}{}
	if r.Kind == Full {
		in.genesFull[r.Gene] = struct{}{}
		in.txFull[r.Transcript] = struct{}{}
	}
	in.Tally = Tally{
		GenesAny:        len(in.genesAny),
		GenesFull:       len(in.genesFull),
		TranscriptsAny:  len(in.txAny),
		TranscriptsFull: len(in.txFull),
	}
	if r.Kind == None {
		return
	}
	in.Genes.add(r.Gene, r.Gene, r.Kind)
	in.Transcripts.add(r.Transcript, r.Gene, r.Kind)
}

// Ingest summarises records.
func Ingest(records []Record) *Ingested {
	in := NewIngested()
	for _, r := range records {
		in.Add(r)
	}
	return in
}

// Detection is the number of reference ids that were detected.
type Detection struct {
	// Reference is the number of reference ids.
	Reference int
	// AnyMatch counts ids with at least one partial or full read.
	AnyMatch int
	// FullLength counts ids with at least one full-length read.
	FullLength int
}

// DetectionCounts counts how many of referenceIDs were detected in s.  Ids
// missing from s count as undetected.
func DetectionCounts(referenceIDs []string, s *Summaries) Detection {
	d := Detection{Reference: len(referenceIDs)}
	for _, id := range referenceIDs {
		sum, ok := s.Get(id)
		if !ok {
			continue
		}
		if sum.Total() > 0 {
			d.AnyMatch++
		}
		if sum.Full > 0 {
			d.FullLength++
		}
	}
	return d
}
