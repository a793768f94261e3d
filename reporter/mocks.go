package reporter

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ec2reporter/awsd/models"
	"ec2reporter/delivery"
)

// MockAWSClient is a mock implementation of AWSClient
type MockAWSClient struct {
	mock.Mock
}

// ValidatePermissions mocks the ValidatePermissions method
func (m *MockAWSClient) ValidatePermissions(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// CallerIdentity mocks the CallerIdentity method
func (m *MockAWSClient) CallerIdentity(ctx context.Context) (*models.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

// MockCollector is a mock implementation of Collector
type MockCollector struct {
	mock.Mock
}

// Collect mocks the Collect method
func (m *MockCollector) Collect(ctx context.Context) (*models.ScanResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanResult), args.Error(1)
}

// MockBuilder is a mock implementation of Builder
type MockBuilder struct {
	mock.Mock
}

// Build mocks the Build method
func (m *MockBuilder) Build(scan *models.ScanResult) (*models.Artifact, error) {
	args := m.Called(scan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artifact), args.Error(1)
}

// MockDeliverer is a mock implementation of Deliverer
type MockDeliverer struct {
	mock.Mock
}

// Preflight mocks the Preflight method
func (m *MockDeliverer) Preflight(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Deliver mocks the Deliver method
func (m *MockDeliverer) Deliver(ctx context.Context, artifact *models.Artifact, total int) delivery.Outcome {
	args := m.Called(ctx, artifact, total)
	return args.Get(0).(delivery.Outcome)
}

// MockConsole is a mock implementation of Console
type MockConsole struct {
	mock.Mock
}

func (m *MockConsole) Banner(identity *models.Identity) {
	m.Called(identity)
}

func (m *MockConsole) Result(scan *models.ScanResult, artifact *models.Artifact, delivery string) {
	m.Called(scan, artifact, delivery)
}

func (m *MockConsole) Fatal(msg string, err error) {
	m.Called(msg, err)
}
