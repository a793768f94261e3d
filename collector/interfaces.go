package collector

import (
	"context"

	"ec2reporter/awsd/models"
)

// InventorySource lists regions and the instances inside one region
type InventorySource interface {
	ListRegions(ctx context.Context) ([]string, error)
	ListInstances(ctx context.Context, region string) ([]models.InstanceRecord, error)
}

// Progress receives per-region scan events
type Progress interface {
	RegionScanned(region string, records []models.InstanceRecord)
	RegionSkipped(region, reason string)
}

// NopProgress discards progress events
type NopProgress struct{}

func (NopProgress) RegionScanned(string, []models.InstanceRecord) {}
func (NopProgress) RegionSkipped(string, string)                  {}
