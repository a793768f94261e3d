package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ec2reporter/awsd/models"
	"ec2reporter/errors"
)

const packageName = "collector"

// Collector walks every enabled region one after another and gathers its instances
type Collector struct {
	source   InventorySource
	progress Progress
	now      func() time.Time
}

// New creates a Collector. A nil progress discards events.
func New(source InventorySource, progress Progress) *Collector {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Collector{
		source:   source,
		progress: progress,
		now:      time.Now,
	}
}

// Collect lists the enabled regions and then the instances of each region in turn.
// Failing to list regions aborts the scan; per-region failures are recorded and skipped.
func (c *Collector) Collect(ctx context.Context) (*models.ScanResult, error) {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "Collect"),
	)

	regions, err := c.source.ListRegions(ctx)
	if err != nil {
		logger.Error("Failed to list regions",
			zap.String("operation", "region_list"),
			zap.Error(err),
		)
		return nil, err
	}
	logger.Info("Scanning regions",
		zap.String("operation", "region_list"),
		zap.Int("region_count", len(regions)),
	)

	result := &models.ScanResult{
		Records:          make([]models.InstanceRecord, 0),
		RegionsAttempted: make([]string, 0, len(regions)),
		SkippedRegions:   make([]string, 0),
		FailedRegions:    make(map[string]string),
	}

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			logger.Warn("Scan interrupted",
				zap.String("operation", "region_scan"),
				zap.String("region", region),
				zap.Error(err),
			)
			return nil, err
		}

		result.RegionsAttempted = append(result.RegionsAttempted, region)

		records, err := c.source.ListInstances(ctx, region)
		if err != nil {
			if errors.Is(err, errors.ErrRegionAccess) {
				logger.Warn("Skipping region, access denied",
					zap.String("operation", "region_scan"),
					zap.String("region", region),
					zap.Error(err),
				)
				result.SkippedRegions = append(result.SkippedRegions, region)
				c.progress.RegionSkipped(region, "access denied")
				continue
			}

			logger.Error("Failed to list instances",
				zap.String("operation", "region_scan"),
				zap.String("region", region),
				zap.Error(err),
			)
			result.FailedRegions[region] = err.Error()
			c.progress.RegionSkipped(region, err.Error())
			continue
		}

		logger.Debug("Region scanned",
			zap.String("operation", "region_scan"),
			zap.String("region", region),
			zap.Int("instance_count", len(records)),
		)
		result.Records = append(result.Records, records...)
		c.progress.RegionScanned(region, records)
	}

	result.ScannedAt = c.now().UTC()

	logger.Info("Scan complete",
		zap.String("operation", "scan_complete"),
		zap.Int("total_instances", result.Total()),
		zap.Int("skipped_regions", len(result.SkippedRegions)),
		zap.Int("failed_regions", len(result.FailedRegions)),
	)
	return result, nil
}
