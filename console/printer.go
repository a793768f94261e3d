package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"ec2reporter/awsd/models"
	"ec2reporter/report"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	info    = color.New(color.FgCyan).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	accent  = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

// Printer shows scan progress and results on a terminal
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out}
}

// Banner prints the account the scan runs against
func (p *Printer) Banner(identity *models.Identity) {
	fmt.Fprintf(p.out, "%s\n", accent("AWS EC2 Instances Report"))
	if identity == nil {
		fmt.Fprintf(p.out, "%s account identity unavailable\n\n", warn("!"))
		return
	}
	fmt.Fprintf(p.out, "Account: %s  Profile: %s\nPrincipal: %s\n\n",
		info(identity.Account), info(identity.Profile), identity.ARN)
}

// RegionScanned prints the instance count of a region and a short table of its instances
func (p *Printer) RegionScanned(region string, records []models.InstanceRecord) {
	if len(records) == 0 {
		fmt.Fprintf(p.out, "%s %s: no instances\n", success("✓"), region)
		return
	}
	fmt.Fprintf(p.out, "%s %s: %s instance(s)\n", success("✓"), region, info(len(records)))

	table := newTable(p.out)
	table.SetHeader([]string{"ID", "NAME", "TYPE", "STATE", "PRIVATE IP", "PUBLIC IP"})
	for _, rec := range records {
		cells := report.Cells(rec)
		table.Append([]string{cells[1], cells[2], cells[3], stateColor(rec.State)(cells[4]), cells[5], cells[6]})
	}
	table.Render()
}

// newTable returns a borderless, left aligned table
func newTable(out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// RegionSkipped prints why a region produced no records
func (p *Printer) RegionSkipped(region, reason string) {
	fmt.Fprintf(p.out, "%s %s: skipped (%s)\n", warn("-"), region, reason)
}

// Result prints the end of run summary
func (p *Printer) Result(scan *models.ScanResult, artifact *models.Artifact, delivery string) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%s %s\n", accent("Total instances:"), info(scan.Total()))
	if scan != nil && len(scan.SkippedRegions) > 0 {
		fmt.Fprintf(p.out, "Skipped regions: %s\n", warn(strings.Join(scan.SkippedRegions, ", ")))
	}
	if scan != nil && len(scan.FailedRegions) > 0 {
		fmt.Fprintf(p.out, "Failed regions: %s\n", failure(len(scan.FailedRegions)))
	}
	if artifact != nil {
		fmt.Fprintf(p.out, "Report: %s (%s, %d bytes)\n", success(artifact.Path), artifact.Format, artifact.Size)
	}
	if delivery != "" {
		fmt.Fprintf(p.out, "Slack delivery: %s\n", delivery)
	}
}

// Fatal prints an error that ended the run
func (p *Printer) Fatal(msg string, err error) {
	fmt.Fprintf(p.out, "%s %s: %v\n", failure("✗"), msg, err)
}

func stateColor(state models.InstanceState) func(a ...interface{}) string {
	switch state {
	case models.StateRunning:
		return success
	case models.StateStopped, models.StateTerminated:
		return failure
	default:
		return warn
	}
}
