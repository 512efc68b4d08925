package mocks

import (
	"drawlens/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAnalysisStore struct {
	mock.Mock
}

func (m *MockAnalysisStore) Put(key string, rec *model.AnalysisRecord) {
	m.Called(key, rec)
}

func (m *MockAnalysisStore) Get(key string) (*model.AnalysisRecord, bool) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Bool(1)
}

func (m *MockAnalysisStore) Has(key string) bool {
	args := m.Called(key)
	return args.Bool(0)
}

func (m *MockAnalysisStore) Len() int {
	args := m.Called()
	return args.Int(0)
}
