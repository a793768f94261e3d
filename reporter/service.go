package reporter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ec2reporter/awsd/models"
	"ec2reporter/delivery"
	"ec2reporter/errors"
	"ec2reporter/metrics"
)

const packageName = "reporter"

// Result describes what a run produced
type Result struct {
	RunID    string
	Identity *models.Identity
	Scan     *models.ScanResult
	Artifact *models.Artifact
	Delivery *delivery.Outcome
}

// ReportService sequences discovery, report building and delivery for one run
type ReportService struct {
	awsClient   AWSClient
	collector   Collector
	builder     Builder
	deliverer   Deliverer
	console     Console
	metrics     *metrics.Metrics
	metricsPath string
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new report service. A nil deliverer disables Slack delivery.
func NewReportService(awsClient AWSClient, collector Collector, builder Builder, deliverer Deliverer, console Console, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.L()
	}
	return &ReportService{
		awsClient: awsClient,
		collector: collector,
		builder:   builder,
		deliverer: deliverer,
		console:   console,
		logger:    logger,
		now:       time.Now,
	}
}

// WithMetrics records run metrics into m and writes them to path after each run when path is set
func (s *ReportService) WithMetrics(m *metrics.Metrics, path string) *ReportService {
	s.metrics = m
	s.metricsPath = path
	return s
}

// Run executes one scan. The only error returned is a failed AWS permission check;
// every later failure is logged and ends the run early or degrades delivery.
func (s *ReportService) Run(ctx context.Context) (*Result, error) {
	started := s.now()
	result := &Result{RunID: uuid.NewString()}
	logger := s.logger.With(
		zap.String("package", packageName),
		zap.String("function", "Run"),
		zap.String("run_id", result.RunID),
	)

	logger.Info("Starting EC2 report run",
		zap.String("operation", "run_start"),
	)

	result.Identity = s.identity(ctx, logger)
	s.console.Banner(result.Identity)

	deliverer := s.preflight(ctx, logger)

	if err := s.awsClient.ValidatePermissions(ctx); err != nil {
		logger.Error("AWS permission validation failed",
			zap.String("operation", "permission_check"),
			zap.Error(err),
		)
		s.console.Fatal("AWS permission validation failed", err)
		s.finish(logger, result, started, false)
		return result, err
	}

	scan, err := s.collector.Collect(ctx)
	if err != nil {
		logger.Error("Instance discovery failed, no report generated",
			zap.String("operation", "collect"),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err),
		)
		s.console.Fatal("Instance discovery failed", err)
		s.finish(logger, result, started, false)
		return result, nil
	}
	result.Scan = scan

	artifact, err := s.builder.Build(scan)
	if err != nil {
		logger.Error("Report generation failed",
			zap.String("operation", "build"),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err),
		)
		s.console.Fatal("Report generation failed", err)
		s.finish(logger, result, started, false)
		return result, nil
	}
	result.Artifact = artifact

	if artifact == nil {
		logger.Info("No EC2 instances found, nothing to report",
			zap.String("operation", "build"),
		)
		s.console.Result(scan, nil, "")
		s.finish(logger, result, started, true)
		return result, nil
	}

	deliveryStatus := "disabled"
	if deliverer != nil {
		outcome := deliverer.Deliver(ctx, artifact, scan.Total())
		result.Delivery = &outcome
		deliveryStatus = string(outcome.Stage)

		logger.Info("Delivery finished",
			zap.String("operation", "deliver"),
			zap.String("stage", deliveryStatus),
			zap.Bool("delivered", outcome.Delivered()),
		)
	} else {
		logger.Info("Slack delivery disabled, report kept locally",
			zap.String("operation", "deliver"),
			zap.String("path", artifact.Path),
		)
	}

	s.console.Result(scan, artifact, deliveryStatus)
	s.finish(logger, result, started, true)
	return result, nil
}

// Check runs the AWS and Slack access checks without scanning
func (s *ReportService) Check(ctx context.Context) error {
	logger := s.logger.With(
		zap.String("package", packageName),
		zap.String("function", "Check"),
	)

	s.console.Banner(s.identity(ctx, logger))

	if err := s.awsClient.ValidatePermissions(ctx); err != nil {
		s.console.Fatal("AWS permission validation failed", err)
		return err
	}

	if s.deliverer == nil {
		logger.Info("Slack delivery disabled, skipping Slack checks",
			zap.String("operation", "slack_preflight"),
		)
		return nil
	}
	if err := s.deliverer.Preflight(ctx); err != nil {
		s.console.Fatal("Slack preflight failed", err)
		return err
	}

	logger.Info("All checks passed",
		zap.String("operation", "check_complete"),
	)
	return nil
}

// identity looks up the caller for log context; failures are not fatal
func (s *ReportService) identity(ctx context.Context, logger *zap.Logger) *models.Identity {
	identity, err := s.awsClient.CallerIdentity(ctx)
	if err != nil {
		logger.Warn("Could not determine AWS caller identity",
			zap.String("operation", "identity"),
			zap.Error(err),
		)
		return nil
	}
	logger.Info("Running as AWS principal",
		zap.String("operation", "identity"),
		zap.String("account", identity.Account),
		zap.String("arn", identity.ARN),
		zap.String("profile", identity.Profile),
	)
	return identity
}

// preflight returns the deliverer to use for this run, or nil when Slack is unusable
func (s *ReportService) preflight(ctx context.Context, logger *zap.Logger) Deliverer {
	if s.deliverer == nil {
		return nil
	}
	if err := s.deliverer.Preflight(ctx); err != nil {
		logger.Warn("Slack preflight failed, delivery disabled for this run",
			zap.String("operation", "slack_preflight"),
			zap.Error(err),
		)
		return nil
	}
	return s.deliverer
}

func (s *ReportService) finish(logger *zap.Logger, result *Result, started time.Time, success bool) {
	finished := s.now()

	logger.Info("Run finished",
		zap.String("operation", "run_complete"),
		zap.Bool("success", success),
		zap.Int("total_instances", result.Scan.Total()),
		zap.Duration("duration", finished.Sub(started)),
	)

	if s.metrics == nil {
		return
	}
	s.metrics.RecordScan(result.Scan)
	s.metrics.RecordArtifact(result.Artifact)
	if result.Delivery != nil {
		s.metrics.RecordDelivery(string(result.Delivery.Stage))
	} else {
		s.metrics.RecordDelivery("")
	}
	s.metrics.RecordRun(started, finished, success)

	if s.metricsPath == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.metricsPath); err != nil {
		logger.Warn("Could not write metrics textfile",
			zap.String("operation", "metrics_write"),
			zap.String("path", s.metricsPath),
			zap.Error(err),
		)
	}
}
