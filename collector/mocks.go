package collector

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ec2reporter/awsd/models"
)

// MockInventorySource is a mock implementation of InventorySource
type MockInventorySource struct {
	mock.Mock
}

// ListRegions mocks the ListRegions method
func (m *MockInventorySource) ListRegions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ListInstances mocks the ListInstances method
func (m *MockInventorySource) ListInstances(ctx context.Context, region string) ([]models.InstanceRecord, error) {
	args := m.Called(ctx, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InstanceRecord), args.Error(1)
}

// MockProgress is a mock implementation of Progress
type MockProgress struct {
	mock.Mock
}

func (m *MockProgress) RegionScanned(region string, records []models.InstanceRecord) {
	m.Called(region, records)
}

func (m *MockProgress) RegionSkipped(region, reason string) {
	m.Called(region, reason)
}
