package model

import "strconv"

// AnalysisRecord is the structured result of analyzing one drawing.
// It is a pure domain model with no transport or storage dependencies and can
// be used across layers (HTTP, service, cache) without coupling.
//
// Every field is guaranteed non-empty after extraction: when a signal is not
// found in the source text, an explicit placeholder is used instead. Consumers
// never need to branch on emptiness.
type AnalysisRecord struct {
	DocumentType       string             `json:"documentType"`
	ProjectInfo        ProjectInfo        `json:"projectInfo"`
	Drawings           []string           `json:"drawings"`
	GeneralNotes       []string           `json:"generalNotes"`
	KeyFeatures        []string           `json:"keyFeatures"`
	MaterialsList      []string           `json:"materialsList"`
	StructuralElements StructuralElements `json:"structuralElements"`

	// ExtractedText is the verbatim model output (or fallback text), retained
	// as ground truth for follow-up question answering.
	ExtractedText string `json:"extractedText"`
}

// ProjectInfo holds drawing metadata recovered from the description text.
type ProjectInfo struct {
	Title       string `json:"title"`
	FileName    string `json:"fileName"`
	UploadDate  string `json:"uploadDate"`
	Scale       string `json:"scale"`
	SheetNumber string `json:"sheetNumber"`
}

// StructuralElements describes the building the drawing depicts.
// Foundation is present only when the source text mentions one.
type StructuralElements struct {
	Floors     FloorCount `json:"floors"`
	Type       string     `json:"type"`
	Foundation string     `json:"foundation,omitempty"`
}

// NotSpecified is the placeholder used wherever a value could not be
// recovered from the description text.
const NotSpecified = "Not specified"

// FloorCount is a floor count that may be unknown. It marshals as a JSON
// number when known and as the "Not specified" placeholder otherwise,
// matching the number-or-string union of the wire contract.
type FloorCount struct {
	N     int
	Known bool
}

// Floors returns a known floor count.
func Floors(n int) FloorCount { return FloorCount{N: n, Known: true} }

// UnknownFloors returns the unknown floor count placeholder.
func UnknownFloors() FloorCount { return FloorCount{} }

func (f FloorCount) String() string {
	if !f.Known {
		return NotSpecified
	}
	return strconv.Itoa(f.N)
}

func (f FloorCount) MarshalJSON() ([]byte, error) {
	if !f.Known {
		return []byte(strconv.Quote(NotSpecified)), nil
	}
	return []byte(strconv.Itoa(f.N)), nil
}

func (f *FloorCount) UnmarshalJSON(b []byte) error {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		// Any non-numeric value (the placeholder string) means unknown.
		*f = FloorCount{}
		return nil
	}
	*f = FloorCount{N: n, Known: true}
	return nil
}
