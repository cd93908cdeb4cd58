package handler_test

import (
	"context"

	"complaintdesk/backend/internal/analysis"

	"github.com/stretchr/testify/mock"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string) (analysis.Classification, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(analysis.Classification), args.Error(1)
}
