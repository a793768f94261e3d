package delivery

import (
	"context"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/mock"
)

// MockSlackAPI is a mock implementation of SlackAPI
type MockSlackAPI struct {
	mock.Mock
}

func (m *MockSlackAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.AuthTestResponse), args.Error(1)
}

func (m *MockSlackAPI) GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.Channel), args.Error(1)
}

func (m *MockSlackAPI) GetUploadURLExternalContext(ctx context.Context, params slack.GetUploadURLExternalParameters) (*slack.GetUploadURLExternalResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.GetUploadURLExternalResponse), args.Error(1)
}

func (m *MockSlackAPI) UploadToURL(ctx context.Context, params slack.UploadToURLParameters) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockSlackAPI) CompleteUploadExternalContext(ctx context.Context, params slack.CompleteUploadExternalParameters) (*slack.CompleteUploadExternalResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.CompleteUploadExternalResponse), args.Error(1)
}

func (m *MockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	args := m.Called(ctx, channelID, options)
	return args.String(0), args.String(1), args.Error(2)
}
