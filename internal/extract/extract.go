// Package extract derives a structured AnalysisRecord from the free-text
// description a vision model produced for a drawing. Extraction is a pure
// function of its inputs: no I/O, no clock, no model dependency, so identical
// text always yields an identical record.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"drawlens/internal/match"
	"drawlens/internal/model"
)

// Defaults used when a signal is absent from the text. Lists and strings are
// never left empty so downstream consumers (prompt builder, UI) never have to
// branch on emptiness.
const (
	DefaultDocumentType = "Architectural Drawing"
	DefaultProjectTitle = "Architectural Project"
	DefaultDrawing      = "General architectural drawing"
	DefaultNote         = "Standard construction practices apply"
	DefaultFeature      = "Standard architectural elements"
	DefaultMaterial     = "Not specified in drawing"
	DefaultBuildingType = "Building structure"
)

// documentTypeRules classify the drawing when no explicit label line exists.
// Order is the tie-break: first keyword found wins.
var documentTypeRules = []match.Rule{
	{Keyword: "floor plan", Label: "Floor Plan"},
	{Keyword: "site plan", Label: "Site Plan"},
	{Keyword: "elevation", Label: "Elevation"},
	{Keyword: "section", Label: "Section"},
	{Keyword: "detail", Label: "Detail Drawing"},
}

var buildingTypeRules = []match.Rule{
	{Keyword: "residential", Label: "Residential structure"},
	{Keyword: "commercial", Label: "Commercial structure"},
	{Keyword: "office", Label: "Office building"},
	{Keyword: "house", Label: "Residential structure"},
}

var (
	drawingKeywords = []string{"plan", "elevation", "section", "view", "detail", "drawing"}
	noteKeywords    = []string{"note", "specification", "requirement", "code", "standard"}
	featureKeywords = []string{
		"door", "window", "wall", "roof", "stair",
		"kitchen", "bathroom", "bedroom", "garage", "balcony",
	}

	// materialVocabulary is the fixed set of recognized material keywords.
	materialVocabulary = []string{
		"concrete", "steel", "wood", "timber", "brick", "glass",
		"aluminum", "stone", "tile", "gypsum", "insulation", "masonry",
	}
)

var (
	// The scale value must start with a digit so prose like "large-scale
	// project" is not mistaken for a drawing scale.
	scaleRe  = regexp.MustCompile(`(?i)\bscale\b\s*[:=]?\s*([0-9][0-9/"'=\-:.\s]*)`)
	sheetRe  = regexp.MustCompile(`(?i)\bsheet\b\s*(?:no\.?|number|#)?\s*:?\s*([A-Za-z0-9][A-Za-z0-9.\-]*)`)
	floorsRe = regexp.MustCompile(`(\d+)[\s-]*(?:floor|storey|story|level)`)
)

// Record builds a fully-populated AnalysisRecord from rawText. The verbatim
// text is retained on the record as grounding context for follow-up Q&A.
// ProjectInfo.UploadDate is left as a placeholder; the caller stamps it.
func Record(rawText, originalFileName string) *model.AnalysisRecord {
	lines := splitLines(rawText)

	return &model.AnalysisRecord{
		DocumentType: DocumentType(rawText),
		ProjectInfo: model.ProjectInfo{
			Title:       projectTitle(lines),
			FileName:    originalFileName,
			UploadDate:  model.NotSpecified,
			Scale:       Scale(rawText),
			SheetNumber: SheetNumber(rawText),
		},
		Drawings:           linesContaining(lines, drawingKeywords, DefaultDrawing),
		GeneralNotes:       linesContaining(lines, noteKeywords, DefaultNote),
		KeyFeatures:        linesContaining(lines, featureKeywords, DefaultFeature),
		MaterialsList:      Materials(rawText),
		StructuralElements: StructuralElements(rawText),
		ExtractedText:      rawText,
	}
}

// DocumentType classifies the drawing category. An explicit
// "document type:"/"type of drawing:" label takes precedence; otherwise the
// first known category keyword found in the text decides.
func DocumentType(rawText string) string {
	for _, line := range splitLines(rawText) {
		lower := strings.ToLower(line)
		for _, label := range []string{"document type:", "type of drawing:"} {
			if idx := strings.Index(lower, label); idx >= 0 {
				if v := strings.TrimSpace(line[idx+len(label):]); v != "" {
					return capitalize(v)
				}
			}
		}
	}
	if label, ok := match.FirstLabel(rawText, documentTypeRules); ok {
		return label
	}
	return DefaultDocumentType
}

// projectTitle takes the value after the first colon on the first line that
// mentions a project or title.
func projectTitle(lines []string) string {
	for _, line := range lines {
		if !match.Contains(line, []string{"project", "title"}) {
			continue
		}
		if _, after, found := strings.Cut(line, ":"); found {
			if v := strings.TrimSpace(after); v != "" {
				return v
			}
		}
	}
	return DefaultProjectTitle
}

// Scale extracts the token sequence following the word "scale".
func Scale(rawText string) string {
	m := scaleRe.FindStringSubmatch(rawText)
	if m == nil {
		return model.NotSpecified
	}
	v := strings.TrimRight(strings.TrimSpace(m[1]), ".,;:-")
	if v == "" {
		return model.NotSpecified
	}
	return v
}

// SheetNumber extracts an alphanumeric sheet token following "sheet".
func SheetNumber(rawText string) string {
	m := sheetRe.FindStringSubmatch(rawText)
	if m == nil {
		return model.NotSpecified
	}
	return strings.TrimRight(m[1], ".")
}

// Materials returns the deduplicated, capitalized material keywords found in
// the text, in vocabulary order. Repeated occurrences count once.
func Materials(rawText string) []string {
	lower := strings.ToLower(rawText)
	var out []string
	for _, m := range materialVocabulary {
		if strings.Contains(lower, m) {
			out = append(out, capitalize(m))
		}
	}
	if len(out) == 0 {
		return []string{DefaultMaterial}
	}
	return out
}

// StructuralElements extracts floor count, building type and an optional
// foundation reference.
func StructuralElements(rawText string) model.StructuralElements {
	se := model.StructuralElements{
		Floors: model.UnknownFloors(),
		Type:   DefaultBuildingType,
	}

	if m := floorsRe.FindStringSubmatch(strings.ToLower(rawText)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			se.Floors = model.Floors(n)
		}
	}

	if label, ok := match.FirstLabel(rawText, buildingTypeRules); ok {
		se.Type = label
	}

	for _, line := range splitLines(rawText) {
		if strings.Contains(strings.ToLower(line), "foundation") {
			se.Foundation = line
			break
		}
	}

	return se
}

// linesContaining keeps every line that mentions one of the category
// keywords, verbatim but trimmed, falling back to the category default.
func linesContaining(lines []string, keywords []string, fallback string) []string {
	var out []string
	for _, line := range lines {
		if match.Contains(line, keywords) {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
