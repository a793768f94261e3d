package models

import "time"

// InstanceState is the lifecycle state of an EC2 instance
type InstanceState string

const (
	StateRunning      InstanceState = "running"
	StateStopped      InstanceState = "stopped"
	StatePending      InstanceState = "pending"
	StateStopping     InstanceState = "stopping"
	StateTerminated   InstanceState = "terminated"
	StateShuttingDown InstanceState = "shutting-down"
	StateOther        InstanceState = "other"
)

// ParseInstanceState maps a provider state name onto InstanceState
func ParseInstanceState(name string) InstanceState {
	switch s := InstanceState(name); s {
	case StateRunning, StateStopped, StatePending, StateStopping, StateTerminated, StateShuttingDown:
		return s
	default:
		return StateOther
	}
}

// InstanceRecord represents one EC2 instance found during a scan.
// Optional attributes are empty when the provider did not return them.
type InstanceRecord struct {
	Region           string
	InstanceID       string
	Name             string
	InstanceType     string
	State            InstanceState
	PrivateIP        string
	PublicIP         string
	VpcID            string
	SubnetID         string
	AvailabilityZone string
	SecurityGroups   []string
	LaunchTime       time.Time
	Platform         string
	Tags             map[string]string
}

// ScanResult holds every record of a scan plus what happened per region
type ScanResult struct {
	Records          []InstanceRecord
	RegionsAttempted []string
	SkippedRegions   []string
	FailedRegions    map[string]string
	ScannedAt        time.Time
}

// Total returns the number of instances found
func (s *ScanResult) Total() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Empty reports whether the scan found no instances
func (s *ScanResult) Empty() bool {
	return s.Total() == 0
}

// Format is the on-disk format of a report artifact
type Format string

const (
	FormatTabular   Format = "xlsx"
	FormatDelimited Format = "csv"
)

// Artifact is a report file written to disk
type Artifact struct {
	Path   string
	Format Format
	Size   int64
}

// Identity describes the AWS principal the scan runs as
type Identity struct {
	Account string
	ARN     string
	UserID  string
	Profile string
}
