package prompt

import (
	"encoding/xml"
	"strings"
)

// xmlObservation mirrors the legacy <observation> tag contract (§6):
// <observation><type/><title/><subtitle/><narrative/><facts><fact/>...</facts>
// <concepts><concept/>...</concepts><files_read><file/>...</files_read>
// <files_modified><file/>...</files_modified></observation>
type xmlObservation struct {
	XMLName   xml.Name `xml:"observation"`
	Type      string   `xml:"type"`
	Title     string   `xml:"title"`
	Subtitle  string   `xml:"subtitle"`
	Narrative string   `xml:"narrative"`
	Facts     struct {
		Fact []string `xml:"fact"`
	} `xml:"facts"`
	Concepts struct {
		Concept []string `xml:"concept"`
	} `xml:"concepts"`
	FilesRead struct {
		File []string `xml:"file"`
	} `xml:"files_read"`
	FilesModified struct {
		File []string `xml:"file"`
	} `xml:"files_modified"`
}

type xmlSummary struct {
	XMLName      xml.Name `xml:"summary"`
	Request      string   `xml:"request"`
	Investigated string   `xml:"investigated"`
	Learned      string   `xml:"learned"`
	Completed    string   `xml:"completed"`
	NextSteps    string   `xml:"next_steps"`
	Notes        string   `xml:"notes"`
}

var observationBlockPattern = xmlBlockPattern("observation")
var summaryBlockPattern = xmlBlockPattern("summary")

// ParseObservationXML extracts the first <observation>…</observation>
// block from raw model output, decodes it, and applies the legacy
// defaulting rule: type defaults to "change" when invalid or missing, and
// any concept entry equal to the (defaulted) type is filtered out. Returns
// false if no well-formed block is found; never panics.
func ParseObservationXML(raw string) (*ObservationArgs, bool) {
	block := firstMatch(observationBlockPattern, raw)
	if block == "" {
		return nil, false
	}
	var x xmlObservation
	if err := xml.Unmarshal([]byte(block), &x); err != nil {
		return nil, false
	}
	if strings.TrimSpace(x.Title) == "" {
		return nil, false
	}
	kind := x.Type
	if !validKind(kind) {
		kind = "change"
	}
	return &ObservationArgs{
		Type:      kind,
		Title:     x.Title,
		Subtitle:  x.Subtitle,
		Narrative: x.Narrative,
		Facts:     x.Facts.Fact,
		Concepts:  filterConcepts(x.Concepts.Concept, kind),
	}, true
}

// ParseSummaryXML extracts the first <summary>…</summary> block.
func ParseSummaryXML(raw string) (*SummaryArgs, bool) {
	block := firstMatch(summaryBlockPattern, raw)
	if block == "" {
		return nil, false
	}
	var x xmlSummary
	if err := xml.Unmarshal([]byte(block), &x); err != nil {
		return nil, false
	}
	return &SummaryArgs{
		Request:      x.Request,
		Investigated: x.Investigated,
		Learned:      x.Learned,
		Completed:    x.Completed,
		NextSteps:    x.NextSteps,
		Notes:        x.Notes,
	}, true
}
