package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"drawlens/internal/extract"
	"drawlens/internal/fallback"
	"drawlens/internal/gateway"
	"drawlens/internal/model"
	"drawlens/internal/storage"
	"drawlens/internal/store"
)

var (
	ErrImageRequired    = errors.New("image data is required")
	ErrQuestionRequired = errors.New("question is required")
	ErrNotFound         = errors.New("document analysis not found")
	ErrNoArtifactStore  = errors.New("artifact storage is not configured")
)

// Provider is the discriminator value set when a real model produced the result.
const Provider = "ollama"

// Notes distinguishing fallback results from AI-grounded ones. The transport
// layer passes them through unchanged, so the user always sees whether the
// model was involved.
const (
	NoteFallbackAnalysis = "AI model unavailable - using fallback analysis"
	NoteFallbackAnswer   = "AI model unavailable - using fallback answer"
)

const dateLayout = "2006-01-02"

// visionPrompt asks the vision model for a description the extractor can
// parse: labeled lines for the classification fields, free prose for the rest.
const visionPrompt = `Describe this technical/architectural drawing in detail.
Start with a line "Document Type:" naming the kind of drawing (floor plan, elevation, section, detail).
Then describe, each on its own lines where visible:
- the project title or name
- the drawing scale and sheet number
- the views and drawings shown
- the number of floors/storeys and the building type (residential, commercial, office)
- construction materials (concrete, steel, wood, brick, glass)
- rooms, doors, windows and other architectural features
- any general notes, specifications or code references`

// AnalysisResult is what the analysis pipeline hands to the transport layer.
// Exactly one of AIProvider and Note is set, discriminating real model output
// from the fallback path.
type AnalysisResult struct {
	FileName   string                `json:"fileName"`
	Analysis   *model.AnalysisRecord `json:"analysis"`
	AIProvider string                `json:"aiProvider,omitempty"`
	Note       string                `json:"note,omitempty"`
}

// AnswerResult is the outcome of one follow-up question.
type AnswerResult struct {
	Answer     string `json:"answer"`
	AIProvider string `json:"aiProvider,omitempty"`
	Note       string `json:"note,omitempty"`
}

// AnalysisService defines the use cases of the analysis pipeline.
type AnalysisService interface {
	// Analyze runs the full pipeline for one uploaded drawing: retain the
	// image, describe it with a vision model (or fall back), extract the
	// structured record and cache it under a fresh key. It never fails for
	// model reasons; only invalid input produces an error.
	Analyze(ctx context.Context, image []byte, contentType, originalFilename string) (*AnalysisResult, error)

	// Answer responds to a follow-up question grounded in the cached record
	// for fileName. A missing key is ErrNotFound; gateway failures produce a
	// fallback answer, never an error.
	Answer(ctx context.Context, fileName, question string) (*AnswerResult, error)

	// Get returns the cached record for fileName, or ErrNotFound.
	Get(ctx context.Context, fileName string) (*model.AnalysisRecord, error)

	// DrawingURL returns a time-limited download URL for the retained
	// drawing image behind fileName.
	DrawingURL(ctx context.Context, fileName string) (string, error)
}

type analysisService struct {
	gw        gateway.Gateway
	cache     store.AnalysisStore
	artifacts storage.Storage // nil when artifact retention is disabled
	log       *slog.Logger
}

// NewAnalysisService constructs the pipeline service. artifacts may be nil,
// in which case uploaded images are analyzed but not retained.
func NewAnalysisService(gw gateway.Gateway, cache store.AnalysisStore, artifacts storage.Storage, log *slog.Logger) AnalysisService {
	if log == nil {
		log = slog.Default()
	}
	return &analysisService{
		gw:        gw,
		cache:     cache,
		artifacts: artifacts,
		log:       log,
	}
}

func (s *analysisService) Analyze(ctx context.Context, image []byte, contentType, originalFilename string) (*AnalysisResult, error) {
	if len(image) == 0 {
		return nil, ErrImageRequired
	}

	// The assigned key doubles as the storage object name; uuid guarantees
	// uniqueness per upload so cached records are never silently overwritten.
	key := uuid.New().String() + strings.ToLower(filepath.Ext(originalFilename))

	s.retainDrawing(ctx, key, image, contentType, originalFilename)

	result := &AnalysisResult{FileName: key}

	if raw, ok := s.describeImage(ctx, image); ok {
		result.Analysis = extract.Record(raw, originalFilename)
		result.AIProvider = Provider
	} else {
		result.Analysis = fallback.Analysis(originalFilename)
		result.Note = NoteFallbackAnalysis
	}

	result.Analysis.ProjectInfo.UploadDate = time.Now().UTC().Format(dateLayout)

	s.cache.Put(key, result.Analysis)
	return result, nil
}

// describeImage selects a vision model and asks it to describe the drawing.
// Any failure along the way (no models, no vision family, generation error,
// blank output) is reported as not-ok so the caller can fall back; there is
// deliberately no retry.
func (s *analysisService) describeImage(ctx context.Context, image []byte) (string, bool) {
	vm, ok := gateway.SelectVisionModel(s.gw.ListModels(ctx))
	if !ok {
		s.log.Warn("no vision model available, falling back")
		return "", false
	}

	raw, err := s.gw.Generate(ctx, vm.Name, visionPrompt, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		s.log.Warn("vision generation failed, falling back", "model", vm.Name, "error", err)
		return "", false
	}
	if strings.TrimSpace(raw) == "" {
		s.log.Warn("vision model returned empty description, falling back", "model", vm.Name)
		return "", false
	}
	return raw, true
}

// retainDrawing uploads the image bytes to object storage. Retention is
// best-effort: a storage failure is logged and the analysis proceeds.
func (s *analysisService) retainDrawing(ctx context.Context, key string, image []byte, contentType, originalFilename string) {
	if s.artifacts == nil {
		return
	}
	_, err := s.artifacts.Put(ctx, drawingKey(key), bytes.NewReader(image), storage.PutObjectOptions{
		Size:        int64(len(image)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		s.log.Warn("drawing retention failed", "key", key, "error", err)
	}
}

func (s *analysisService) Answer(ctx context.Context, fileName, question string) (*AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrQuestionRequired
	}

	rec, ok := s.cache.Get(fileName)
	if !ok {
		return nil, ErrNotFound
	}

	prompt := buildAnswerPrompt(question, rec)

	if tm, ok := gateway.SelectTextModel(s.gw.ListModels(ctx)); ok {
		answer, err := s.gw.Generate(ctx, tm.Name, prompt)
		if err == nil && strings.TrimSpace(answer) != "" {
			return &AnswerResult{Answer: answer, AIProvider: Provider}, nil
		}
		if err != nil {
			s.log.Warn("text generation failed, falling back", "model", tm.Name, "error", err)
		}
	}

	return &AnswerResult{
		Answer: fallback.Answer(question, rec),
		Note:   NoteFallbackAnswer,
	}, nil
}

func (s *analysisService) Get(ctx context.Context, fileName string) (*model.AnalysisRecord, error) {
	rec, ok := s.cache.Get(fileName)
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *analysisService) DrawingURL(ctx context.Context, fileName string) (string, error) {
	if s.artifacts == nil {
		return "", ErrNoArtifactStore
	}
	if !s.cache.Has(fileName) {
		return "", ErrNotFound
	}
	u, err := s.artifacts.PresignGet(ctx, drawingKey(fileName), 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("presign drawing url: %w", err)
	}
	return u, nil
}

func drawingKey(fileName string) string {
	return "drawings/" + fileName
}

// buildAnswerPrompt grounds the question in the full extracted description
// plus a condensed key-facts block, so answers reference this specific
// drawing rather than generic knowledge.
func buildAnswerPrompt(question string, rec *model.AnalysisRecord) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant answering questions about an analyzed technical drawing.\n\n")
	sb.WriteString("Full drawing description:\n")
	sb.WriteString(rec.ExtractedText)
	sb.WriteString("\n\nKey facts:\n")
	fmt.Fprintf(&sb, "- Document type: %s\n", rec.DocumentType)
	fmt.Fprintf(&sb, "- Project: %s\n", rec.ProjectInfo.Title)
	fmt.Fprintf(&sb, "- Floors: %s\n", rec.StructuralElements.Floors)
	fmt.Fprintf(&sb, "- Materials: %s\n", strings.Join(rec.MaterialsList, ", "))
	fmt.Fprintf(&sb, "- Features: %s\n", strings.Join(rec.KeyFeatures, ", "))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer specifically, referencing details from this drawing.")
	return sb.String()
}
