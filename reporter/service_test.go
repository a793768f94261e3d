package reporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"ec2reporter/awsd/models"
	"ec2reporter/collector"
	"ec2reporter/delivery"
	"ec2reporter/errors"
	"ec2reporter/metrics"
	"ec2reporter/report"
)

var testIdentity = &models.Identity{Account: "123456789012", ARN: "arn:aws:iam::123456789012:user/r", Profile: "default"}

func sampleScan() *models.ScanResult {
	return &models.ScanResult{
		Records: []models.InstanceRecord{
			{Region: "us-east-1", InstanceID: "i-1", State: models.StateRunning},
		},
		RegionsAttempted: []string{"us-east-1"},
		SkippedRegions:   []string{},
		FailedRegions:    map[string]string{},
	}
}

type fixture struct {
	aws       *MockAWSClient
	collector *MockCollector
	builder   *MockBuilder
	deliverer *MockDeliverer
	console   *MockConsole
}

func newFixture() *fixture {
	f := &fixture{
		aws:       new(MockAWSClient),
		collector: new(MockCollector),
		builder:   new(MockBuilder),
		deliverer: new(MockDeliverer),
		console:   new(MockConsole),
	}
	f.console.On("Banner", mock.Anything).Return()
	f.console.On("Result", mock.Anything, mock.Anything, mock.Anything).Return()
	f.console.On("Fatal", mock.Anything, mock.Anything).Return()
	return f
}

func TestReportService_Run(t *testing.T) {
	artifact := &models.Artifact{Path: "/tmp/r.xlsx", Format: models.FormatTabular, Size: 10}

	tests := []struct {
		name          string
		setup         func(f *fixture)
		noDeliverer   bool
		expectErr     bool
		wantArtifact  bool
		wantStage     delivery.Stage
		wantDelivered bool
	}{
		{
			name: "full run delivered",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.deliverer.On("Preflight", mock.Anything).Return(nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(sampleScan(), nil)
				f.builder.On("Build", mock.Anything).Return(artifact, nil)
				f.deliverer.On("Deliver", mock.Anything, artifact, 1).Return(delivery.Outcome{Stage: delivery.StageFinalized, FileID: "F1"})
			},
			wantArtifact:  true,
			wantStage:     delivery.StageFinalized,
			wantDelivered: true,
		},
		{
			name: "identity lookup failure is not fatal",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(nil, fmt.Errorf("expired token"))
				f.deliverer.On("Preflight", mock.Anything).Return(nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(sampleScan(), nil)
				f.builder.On("Build", mock.Anything).Return(artifact, nil)
				f.deliverer.On("Deliver", mock.Anything, artifact, 1).Return(delivery.Outcome{Stage: delivery.StageSummarySent})
			},
			wantArtifact:  true,
			wantStage:     delivery.StageSummarySent,
			wantDelivered: true,
		},
		{
			name: "slack preflight failure disables delivery",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.deliverer.On("Preflight", mock.Anything).Return(errors.New(errors.ErrConfigInvalid, "slack authentication failed", nil, nil))
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(sampleScan(), nil)
				f.builder.On("Build", mock.Anything).Return(artifact, nil)
			},
			wantArtifact: true,
		},
		{
			name:        "no deliverer configured",
			noDeliverer: true,
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(sampleScan(), nil)
				f.builder.On("Build", mock.Anything).Return(artifact, nil)
			},
			wantArtifact: true,
		},
		{
			name: "permission failure is returned",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.deliverer.On("Preflight", mock.Anything).Return(nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(errors.New(errors.ErrPermission, "insufficient AWS permissions", nil, nil))
			},
			expectErr: true,
		},
		{
			name: "region listing failure ends the run without error",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.deliverer.On("Preflight", mock.Anything).Return(nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(nil, errors.New(errors.ErrRegionList, "could not retrieve AWS regions", nil, nil))
			},
		},
		{
			name: "empty scan skips build output and delivery",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.deliverer.On("Preflight", mock.Anything).Return(nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(&models.ScanResult{}, nil)
				f.builder.On("Build", mock.Anything).Return(nil, nil)
			},
		},
		{
			name: "report write failure ends the run without delivery",
			setup: func(f *fixture) {
				f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
				f.deliverer.On("Preflight", mock.Anything).Return(nil)
				f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
				f.collector.On("Collect", mock.Anything).Return(sampleScan(), nil)
				f.builder.On("Build", mock.Anything).Return(nil, errors.New(errors.ErrReportWrite, "disk full", nil, nil))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			var deliverer Deliverer
			if !tt.noDeliverer {
				deliverer = f.deliverer
			}
			service := NewReportService(f.aws, f.collector, f.builder, deliverer, f.console, zap.NewNop())

			result, err := service.Run(context.Background())
			require.NotNil(t, result)
			assert.NotEmpty(t, result.RunID)

			if tt.expectErr {
				assert.True(t, errors.Is(err, errors.ErrPermission))
				f.collector.AssertNotCalled(t, "Collect", mock.Anything)
			} else {
				assert.NoError(t, err)
			}

			if tt.wantArtifact {
				assert.Equal(t, artifact, result.Artifact)
			} else {
				assert.Nil(t, result.Artifact)
			}

			if tt.wantDelivered {
				require.NotNil(t, result.Delivery)
				assert.Equal(t, tt.wantStage, result.Delivery.Stage)
			} else {
				assert.Nil(t, result.Delivery)
				f.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
			}

			f.aws.AssertExpectations(t)
			f.collector.AssertExpectations(t)
			f.builder.AssertExpectations(t)
			f.deliverer.AssertExpectations(t)
		})
	}
}

func TestReportService_Check(t *testing.T) {
	tests := []struct {
		name        string
		permErr     error
		preflight   error
		noDeliverer bool
		expectErr   bool
	}{
		{name: "all good"},
		{name: "no slack configured", noDeliverer: true},
		{name: "aws denied", permErr: errors.New(errors.ErrPermission, "denied", nil, nil), expectErr: true},
		{name: "slack rejected", preflight: errors.New(errors.ErrConfigInvalid, "bad token", nil, nil), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
			f.aws.On("ValidatePermissions", mock.Anything).Return(tt.permErr)
			f.deliverer.On("Preflight", mock.Anything).Return(tt.preflight)

			var deliverer Deliverer
			if !tt.noDeliverer {
				deliverer = f.deliverer
			}
			service := NewReportService(f.aws, f.collector, f.builder, deliverer, f.console, zap.NewNop())

			err := service.Check(context.Background())
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			f.collector.AssertNotCalled(t, "Collect", mock.Anything)
		})
	}
}

// Three regions: two running instances, one stopped untagged instance, one region denied.
func TestReportService_ThreeRegionScenario(t *testing.T) {
	src := new(collector.MockInventorySource)
	src.On("ListRegions", mock.Anything).Return([]string{"us-east-1", "eu-west-1", "ap-east-1"}, nil)
	src.On("ListInstances", mock.Anything, "us-east-1").Return([]models.InstanceRecord{
		{Region: "us-east-1", InstanceID: "i-a1", Name: "web-1", InstanceType: "t3.micro", State: models.StateRunning},
		{Region: "us-east-1", InstanceID: "i-a2", Name: "web-2", InstanceType: "t3.micro", State: models.StateRunning},
	}, nil)
	src.On("ListInstances", mock.Anything, "eu-west-1").Return([]models.InstanceRecord{
		{Region: "eu-west-1", InstanceID: "i-b1", InstanceType: "m5.large", State: models.StateStopped},
	}, nil)
	src.On("ListInstances", mock.Anything, "ap-east-1").Return(nil,
		errors.New(errors.ErrRegionAccess, "access denied", nil, nil))

	dir := t.TempDir()
	f := newFixture()
	f.aws.On("CallerIdentity", mock.Anything).Return(testIdentity, nil)
	f.aws.On("ValidatePermissions", mock.Anything).Return(nil)
	f.deliverer.On("Preflight", mock.Anything).Return(nil)
	f.deliverer.On("Deliver", mock.Anything, mock.Anything, 3).Return(delivery.Outcome{Stage: delivery.StageSummarySent})

	m := metrics.NewMetrics(prometheus.NewRegistry())
	metricsPath := filepath.Join(dir, "ec2reporter.prom")

	service := NewReportService(f.aws, collector.New(src, nil), report.NewBuilder(dir, ""), f.deliverer, f.console, zap.NewNop()).
		WithMetrics(m, metricsPath)

	result, err := service.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Artifact)
	assert.Equal(t, 3, result.Scan.Total())
	assert.Equal(t, []string{"ap-east-1"}, result.Scan.SkippedRegions)

	wb, err := excelize.OpenFile(result.Artifact.Path)
	require.NoError(t, err)
	defer wb.Close()

	name, err := wb.GetCellValue(report.DetailsSheet, "C7")
	require.NoError(t, err)
	assert.Equal(t, "N/A", name)

	regions, err := wb.GetCols(report.SummarySheet)
	require.NoError(t, err)
	assert.NotContains(t, regions[0], "ap-east-1")
	assert.Contains(t, regions[0], "us-east-1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Regions.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Delivery.WithLabelValues("summary_sent")))
	_, err = os.Stat(metricsPath)
	assert.NoError(t, err)
}
