package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vultisig/feedback-client/internal/api"
	"github.com/vultisig/feedback-client/internal/types"
)

type MockSubmissionClient struct {
	mock.Mock
}

var _ api.SubmissionClient = (*MockSubmissionClient)(nil)

func (m *MockSubmissionClient) SubmitFeedback(ctx context.Context, rating int, review string) (*types.Submission, error) {
	args := m.Called(ctx, rating, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Submission), args.Error(1)
}

func (m *MockSubmissionClient) ListSubmissions(ctx context.Context, query api.ListQuery) (*types.SubmissionPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubmissionPage), args.Error(1)
}
