package reporter

import (
	"context"

	"ec2reporter/awsd/models"
	"ec2reporter/delivery"
)

// AWSClient defines the account level AWS checks
type AWSClient interface {
	ValidatePermissions(ctx context.Context) error
	CallerIdentity(ctx context.Context) (*models.Identity, error)
}

// Collector gathers the instance inventory
type Collector interface {
	Collect(ctx context.Context) (*models.ScanResult, error)
}

// Builder writes the report artifact
type Builder interface {
	Build(scan *models.ScanResult) (*models.Artifact, error)
}

// Deliverer shares the artifact with the configured channel
type Deliverer interface {
	Preflight(ctx context.Context) error
	Deliver(ctx context.Context, artifact *models.Artifact, total int) delivery.Outcome
}

// Console shows run progress to the operator
type Console interface {
	Banner(identity *models.Identity)
	Result(scan *models.ScanResult, artifact *models.Artifact, delivery string)
	Fatal(msg string, err error)
}
