package report

import (
	"sort"

	"ec2reporter/awsd/models"
)

// RegionSummary counts the instances of one region
type RegionSummary struct {
	Region  string
	Total   int
	Running int
	Stopped int
}

// Count is one row of a key/count table
type Count struct {
	Key   string
	Count int
}

// Summary holds the aggregate tables of the summary sheet, each sorted by key
type Summary struct {
	ByRegion []RegionSummary
	ByType   []Count
	ByState  []Count
}

// Summarize aggregates records by region, instance type and state.
// Stopped is everything in a region that is not running.
func Summarize(records []models.InstanceRecord) Summary {
	regions := map[string]*RegionSummary{}
	types := map[string]int{}
	states := map[string]int{}

	for _, rec := range records {
		rs, ok := regions[rec.Region]
		if !ok {
			rs = &RegionSummary{Region: rec.Region}
			regions[rec.Region] = rs
		}
		rs.Total++
		if rec.State == models.StateRunning {
			rs.Running++
		}

		types[orNA(rec.InstanceType)]++
		states[orNA(string(rec.State))]++
	}

	summary := Summary{
		ByRegion: make([]RegionSummary, 0, len(regions)),
		ByType:   sortedCounts(types),
		ByState:  sortedCounts(states),
	}
	for _, rs := range regions {
		rs.Stopped = rs.Total - rs.Running
		summary.ByRegion = append(summary.ByRegion, *rs)
	}
	sort.Slice(summary.ByRegion, func(i, j int) bool {
		return summary.ByRegion[i].Region < summary.ByRegion[j].Region
	})
	return summary
}

func sortedCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for k, v := range m {
		counts = append(counts, Count{Key: k, Count: v})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Key < counts[j].Key
	})
	return counts
}
