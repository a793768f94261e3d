package report

import (
	"strings"

	"ec2reporter/awsd/models"
)

const (
	notAvailable    = "N/A"
	defaultPlatform = "Linux/UNIX"

	// LaunchTimeLayout renders launch times in the details sheet and CSV
	LaunchTimeLayout = "2006-01-02 15:04:05 UTC"
)

// Columns are the detail column headers shared by the tabular and delimited outputs
var Columns = []string{
	"Region",
	"Instance ID",
	"Instance Name",
	"Instance Type",
	"State",
	"Private IP",
	"Public IP",
	"VPC ID",
	"Subnet ID",
	"Availability Zone",
	"Security Groups",
	"Launch Time",
	"Platform",
}

// Cells renders a record as one row of display values, in Columns order
func Cells(rec models.InstanceRecord) []string {
	launch := notAvailable
	if !rec.LaunchTime.IsZero() {
		launch = rec.LaunchTime.UTC().Format(LaunchTimeLayout)
	}

	groups := notAvailable
	if len(rec.SecurityGroups) > 0 {
		groups = strings.Join(rec.SecurityGroups, ", ")
	}

	platform := rec.Platform
	if platform == "" {
		platform = defaultPlatform
	}

	return []string{
		rec.Region,
		rec.InstanceID,
		orNA(rec.Name),
		orNA(rec.InstanceType),
		orNA(string(rec.State)),
		orNA(rec.PrivateIP),
		orNA(rec.PublicIP),
		orNA(rec.VpcID),
		orNA(rec.SubnetID),
		orNA(rec.AvailabilityZone),
		groups,
		launch,
		platform,
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
