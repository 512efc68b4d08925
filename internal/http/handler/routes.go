package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"drawlens/internal/gateway"
	"drawlens/internal/service"
	"drawlens/internal/store"
)

// analyzeResponse is the body returned after a successful upload. Exactly one
// of AIProvider and Note is present, telling the client whether a real model
// produced the analysis.
type analyzeResponse struct {
	Success    bool        `json:"success"`
	FileName   string      `json:"fileName"`
	Analysis   interface{} `json:"analysis"`
	AIProvider string      `json:"aiProvider,omitempty"`
	Note       string      `json:"note,omitempty"`
}

type chatRequest struct {
	Question string `json:"question"`
	FileName string `json:"fileName"`
}

type chatResponse struct {
	Success    bool   `json:"success"`
	Answer     string `json:"answer"`
	AIProvider string `json:"aiProvider,omitempty"`
	Note       string `json:"note,omitempty"`
}

// HealthCheck reports service health. The AI gateway being unreachable does
// not make the service unhealthy because every operation has a deterministic
// fallback; its availability is reported as a flag instead.
func HealthCheck(gw gateway.Gateway, cache store.AnalysisStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":         "healthy",
			"aiAvailable":    gw.IsUsable(c.UserContext()),
			"cachedAnalyses": cache.Len(),
		})
	}
}

// LivenessProbe is a minimal probe that answers as long as the process runs.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// AnalyzeDrawing handles drawing uploads (multipart/form-data, field name:
// drawing). maxBytes caps the accepted file size.
func AnalyzeDrawing(svc service.AnalysisService, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("drawing")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "drawing file is required")
		}

		ct := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") {
			return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "only image uploads are supported")
		}

		if maxBytes > 0 && fh.Size > maxBytes {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "uploaded file exceeds the size limit")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		image, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		res, err := svc.Analyze(c.UserContext(), image, ct, fh.Filename)
		if err != nil {
			if errors.Is(err, service.ErrImageRequired) {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "drawing file is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return c.Status(fiber.StatusCreated).JSON(analyzeResponse{
			Success:    true,
			FileName:   res.FileName,
			Analysis:   res.Analysis,
			AIProvider: res.AIProvider,
			Note:       res.Note,
		})
	}
}

// GetAnalysis returns the cached analysis record for an upload key.
func GetAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "ANALYSIS_NOT_FOUND", "analysis not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{
			"success":  true,
			"fileName": c.Params("id"),
			"analysis": rec,
		})
	}
}

// GetDrawingURL returns a time-limited download URL for the retained image.
func GetDrawingURL(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.DrawingURL(c.UserContext(), c.Params("id"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "ANALYSIS_NOT_FOUND", "analysis not found")
			case errors.Is(err, service.ErrNoArtifactStore):
				return writeError(c, fiber.StatusServiceUnavailable, "ARTIFACTS_DISABLED", "drawing retention is not configured")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(fiber.Map{
			"success": true,
			"url":     u,
		})
	}
}

// Chat answers a follow-up question about a previously analyzed drawing.
func Chat(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if strings.TrimSpace(req.FileName) == "" {
			return writeError(c, fiber.StatusBadRequest, "FILE_NAME_REQUIRED", "fileName is required")
		}

		res, err := svc.Answer(c.UserContext(), req.FileName, req.Question)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrQuestionRequired):
				return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "ANALYSIS_NOT_FOUND", "analysis not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		return c.JSON(chatResponse{
			Success:    true,
			Answer:     res.Answer,
			AIProvider: res.AIProvider,
			Note:       res.Note,
		})
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, gw gateway.Gateway, cache store.AnalysisStore, svc service.AnalysisService, maxUploadBytes int64) {
	app.Get("/health", HealthCheck(gw, cache))
	app.Get("/healthz", LivenessProbe())

	app.Post("/analyses", AnalyzeDrawing(svc, maxUploadBytes))
	app.Get("/analyses/:id", GetAnalysis(svc))
	app.Get("/analyses/:id/drawing", GetDrawingURL(svc))

	app.Post("/chat", Chat(svc))
}
