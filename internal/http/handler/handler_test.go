package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drawlens/internal/fallback"
	gatewayMocks "drawlens/internal/gateway/mocks"
	"drawlens/internal/service"
	serviceMocks "drawlens/internal/service/mocks"
	"drawlens/internal/store"
	storeMocks "drawlens/internal/store/mocks"
)

// multipartDrawing builds a multipart body with a single "drawing" part
// carrying an explicit content type.
func multipartDrawing(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="drawing"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	mockGw := new(gatewayMocks.MockGateway)
	mockGw.On("IsUsable", mock.Anything).Return(true)

	mockCache := new(storeMocks.MockAnalysisStore)
	mockCache.On("Len").Return(3)

	app := fiber.New()
	app.Get("/health", HealthCheck(mockGw, mockCache))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["aiAvailable"])
	assert.Equal(t, float64(3), body["cachedAnalyses"])
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeDrawing(t *testing.T) {
	mockSvc := new(serviceMocks.MockAnalysisService)
	app := fiber.New()
	app.Post("/analyses", AnalyzeDrawing(mockSvc, 10<<20))

	t.Run("success", func(t *testing.T) {
		expected := &service.AnalysisResult{
			FileName:   "abc123.png",
			Analysis:   fallback.Analysis("plan.png"),
			AIProvider: service.Provider,
		}
		mockSvc.On("Analyze", mock.Anything, []byte("png-bytes"), "image/png", "plan.png").
			Return(expected, nil).Once()

		body, ct := multipartDrawing(t, "plan.png", "image/png", []byte("png-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/analyses", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result analyzeResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.Success)
		assert.Equal(t, "abc123.png", result.FileName)
		assert.Equal(t, service.Provider, result.AIProvider)
		assert.Empty(t, result.Note)
		mockSvc.AssertExpectations(t)
	})

	t.Run("fallback note passthrough", func(t *testing.T) {
		expected := &service.AnalysisResult{
			FileName: "abc123.png",
			Analysis: fallback.Analysis("plan.png"),
			Note:     service.NoteFallbackAnalysis,
		}
		mockSvc.On("Analyze", mock.Anything, mock.Anything, "image/png", "plan.png").
			Return(expected, nil).Once()

		body, ct := multipartDrawing(t, "plan.png", "image/png", []byte("png-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/analyses", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result analyzeResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, service.NoteFallbackAnalysis, result.Note)
		assert.Empty(t, result.AIProvider)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyses", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		body, ct := multipartDrawing(t, "notes.txt", "text/plain", []byte("hello"))
		req := httptest.NewRequest(http.MethodPost, "/analyses", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", res.Error.Code)
	})

	t.Run("file too large", func(t *testing.T) {
		tiny := fiber.New()
		tiny.Post("/analyses", AnalyzeDrawing(mockSvc, 4))

		body, ct := multipartDrawing(t, "plan.png", "image/png", []byte("more-than-four-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/analyses", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := tiny.Test(req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_TOO_LARGE", res.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Analyze", mock.Anything, mock.Anything, "image/png", "plan.png").
			Return(nil, errors.New("pipeline broke")).Once()

		body, ct := multipartDrawing(t, "plan.png", "image/png", []byte("png-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/analyses", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetAnalysis(t *testing.T) {
	mockSvc := new(serviceMocks.MockAnalysisService)
	app := fiber.New()
	app.Get("/analyses/:id", GetAnalysis(mockSvc))

	t.Run("success", func(t *testing.T) {
		rec := fallback.Analysis("plan.png")
		mockSvc.On("Get", mock.Anything, "abc123.png").Return(rec, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/analyses/abc123.png", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "abc123.png", body["fileName"])
		assert.NotNil(t, body["analysis"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing.png").Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/analyses/missing.png", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ANALYSIS_NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDrawingURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockAnalysisService)
	app := fiber.New()
	app.Get("/analyses/:id/drawing", GetDrawingURL(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("DrawingURL", mock.Anything, "abc123.png").
			Return("https://minio/drawings/abc123.png?sig", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/analyses/abc123.png/drawing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, true, body["success"])
		assert.Contains(t, body["url"], "abc123.png")
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("DrawingURL", mock.Anything, "missing.png").
			Return("", service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/analyses/missing.png/drawing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("retention disabled", func(t *testing.T) {
		mockSvc.On("DrawingURL", mock.Anything, "abc123.png").
			Return("", service.ErrNoArtifactStore).Once()

		req := httptest.NewRequest(http.MethodGet, "/analyses/abc123.png/drawing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ARTIFACTS_DISABLED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestChat(t *testing.T) {
	mockSvc := new(serviceMocks.MockAnalysisService)
	app := fiber.New()
	app.Post("/chat", Chat(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		expected := &service.AnswerResult{Answer: "It has two floors.", AIProvider: service.Provider}
		mockSvc.On("Answer", mock.Anything, "abc123.png", "How many floors?").
			Return(expected, nil).Once()

		resp := post(`{"fileName":"abc123.png","question":"How many floors?"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result chatResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.True(t, result.Success)
		assert.Equal(t, "It has two floors.", result.Answer)
		assert.Equal(t, service.Provider, result.AIProvider)
		mockSvc.AssertExpectations(t)
	})

	t.Run("fallback note passthrough", func(t *testing.T) {
		expected := &service.AnswerResult{Answer: "This is a floor plan.", Note: service.NoteFallbackAnswer}
		mockSvc.On("Answer", mock.Anything, "abc123.png", "What is this?").
			Return(expected, nil).Once()

		resp := post(`{"fileName":"abc123.png","question":"What is this?"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result chatResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, service.NoteFallbackAnswer, result.Note)
		assert.Empty(t, result.AIProvider)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file name", func(t *testing.T) {
		resp := post(`{"question":"How many floors?"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_NAME_REQUIRED", res.Error.Code)
	})

	t.Run("empty question", func(t *testing.T) {
		mockSvc.On("Answer", mock.Anything, "abc123.png", "").
			Return(nil, service.ErrQuestionRequired).Once()

		resp := post(`{"fileName":"abc123.png"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "QUESTION_REQUIRED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown analysis", func(t *testing.T) {
		mockSvc.On("Answer", mock.Anything, "missing.png", "Anything?").
			Return(nil, service.ErrNotFound).Once()

		resp := post(`{"fileName":"missing.png","question":"Anything?"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ANALYSIS_NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp := post(`{not json`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_BODY", res.Error.Code)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockGw := new(gatewayMocks.MockGateway)
	mockSvc := new(serviceMocks.MockAnalysisService)
	RegisterRoutes(app, mockGw, store.NewInMemory(), mockSvc, 10<<20)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
