package mocks

import (
	"context"

	"drawlens/internal/model"
	"drawlens/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, image []byte, contentType, originalFilename string) (*service.AnalysisResult, error) {
	args := m.Called(ctx, image, contentType, originalFilename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) Answer(ctx context.Context, fileName, question string) (*service.AnswerResult, error) {
	args := m.Called(ctx, fileName, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnswerResult), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, fileName string) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

func (m *MockAnalysisService) DrawingURL(ctx context.Context, fileName string) (string, error) {
	args := m.Called(ctx, fileName)
	return args.String(0), args.Error(1)
}
