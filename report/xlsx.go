package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"ec2reporter/awsd/models"
)

const (
	DetailsSheet = "EC2 Instances"
	SummarySheet = "Summary"

	reportTitle = "AWS EC2 Instances Report"

	headerRow = 4
	firstRow  = headerRow + 1

	// GeneratedLayout renders the generation timestamp on the details sheet
	GeneratedLayout = "2006-01-02 15:04:05"
)

var columnWidths = []float64{15, 20, 25, 15, 12, 15, 15, 15, 15, 20, 30, 20, 15}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// XLSXWriter writes the formatted workbook with a details sheet and a summary sheet
type XLSXWriter struct{}

type styles struct {
	title   int
	header  int
	summary int
	running int
	stopped int
	plain   int
}

func (XLSXWriter) Format() models.Format {
	return models.FormatTabular
}

func (XLSXWriter) Write(path string, scan *models.ScanResult, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailsSheet); err != nil {
		return err
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeDetails(f, st, scan, generated); err != nil {
		return fmt.Errorf("details sheet: %w", err)
	}
	if err := writeSummary(f, st, Summarize(scan.Records)); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func newStyles(f *excelize.File) (*styles, error) {
	var st styles
	var err error

	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	if st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      fill("366092"),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      fill("4F81BD"),
		Border:    thinBorder,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return nil, err
	}
	if st.summary, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	}); err != nil {
		return nil, err
	}
	if st.running, err = f.NewStyle(&excelize.Style{
		Fill:   fill("C6EFCE"),
		Border: thinBorder,
	}); err != nil {
		return nil, err
	}
	if st.stopped, err = f.NewStyle(&excelize.Style{
		Fill:   fill("FFC7CE"),
		Border: thinBorder,
	}); err != nil {
		return nil, err
	}
	if st.plain, err = f.NewStyle(&excelize.Style{
		Border: thinBorder,
	}); err != nil {
		return nil, err
	}
	return &st, nil
}

func writeDetails(f *excelize.File, st *styles, scan *models.ScanResult, generated time.Time) error {
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}

	titleEnd := lastCol + "1"
	if err := f.MergeCell(DetailsSheet, "A1", titleEnd); err != nil {
		return err
	}
	if err := f.SetCellValue(DetailsSheet, "A1", reportTitle); err != nil {
		return err
	}
	if err := f.SetCellStyle(DetailsSheet, "A1", titleEnd, st.title); err != nil {
		return err
	}
	if err := f.SetRowHeight(DetailsSheet, 1, 25); err != nil {
		return err
	}

	if err := f.SetCellValue(DetailsSheet, "A2", fmt.Sprintf("Total Instances: %d", scan.Total())); err != nil {
		return err
	}
	if err := f.SetCellValue(DetailsSheet, "C2", "Generated: "+generated.Format(GeneratedLayout)); err != nil {
		return err
	}
	if err := f.SetCellStyle(DetailsSheet, "A2", "C2", st.summary); err != nil {
		return err
	}

	if err := setRow(f, DetailsSheet, 1, headerRow, Columns); err != nil {
		return err
	}
	headerEnd := fmt.Sprintf("%s%d", lastCol, headerRow)
	if err := f.SetCellStyle(DetailsSheet, fmt.Sprintf("A%d", headerRow), headerEnd, st.header); err != nil {
		return err
	}

	for i, rec := range scan.Records {
		row := firstRow + i
		if err := setRow(f, DetailsSheet, 1, row, Cells(rec)); err != nil {
			return err
		}

		style := st.plain
		switch rec.State {
		case models.StateRunning:
			style = st.running
		case models.StateStopped:
			style = st.stopped
		}
		if err := f.SetCellStyle(DetailsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), style); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(DetailsSheet, col, col, width); err != nil {
			return err
		}
	}

	if err := f.SetPanes(DetailsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", firstRow),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastRow := headerRow + scan.Total()
	return f.AutoFilter(DetailsSheet, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastRow), []excelize.AutoFilterOptions{})
}

func writeSummary(f *excelize.File, st *styles, summary Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	// by region, columns A-D
	if err := writeTableTitle(f, st, "A1", "Summary by Region"); err != nil {
		return err
	}
	if err := writeTableHeader(f, st, 1, []string{"Region", "Total Instances", "Running Instances", "Stopped Instances"}); err != nil {
		return err
	}
	for i, rs := range summary.ByRegion {
		if err := setRow(f, SummarySheet, 1, 4+i, []interface{}{rs.Region, rs.Total, rs.Running, rs.Stopped}); err != nil {
			return err
		}
	}

	// by type, columns F-G
	if err := writeTableTitle(f, st, "F1", "Summary by Instance Type"); err != nil {
		return err
	}
	if err := writeCounts(f, st, 6, "Instance Type", summary.ByType); err != nil {
		return err
	}

	// by state, columns I-J
	if err := writeTableTitle(f, st, "I1", "Summary by State"); err != nil {
		return err
	}
	if err := writeCounts(f, st, 9, "State", summary.ByState); err != nil {
		return err
	}

	for _, col := range []string{"A", "B", "C", "D", "F", "G", "I", "J"} {
		if err := f.SetColWidth(SummarySheet, col, col, 20); err != nil {
			return err
		}
	}
	return nil
}

func writeTableTitle(f *excelize.File, st *styles, cell, title string) error {
	if err := f.SetCellValue(SummarySheet, cell, title); err != nil {
		return err
	}
	return f.SetCellStyle(SummarySheet, cell, cell, st.summary)
}

func writeTableHeader(f *excelize.File, st *styles, col int, headers []string) error {
	if err := setRow(f, SummarySheet, col, 3, headers); err != nil {
		return err
	}
	start, err := excelize.CoordinatesToCellName(col, 3)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(col+len(headers)-1, 3)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SummarySheet, start, end, st.header)
}

func writeCounts(f *excelize.File, st *styles, col int, keyHeader string, counts []Count) error {
	if err := writeTableHeader(f, st, col, []string{keyHeader, "Count"}); err != nil {
		return err
	}
	for i, c := range counts {
		if err := setRow(f, SummarySheet, col, 4+i, []interface{}{c.Key, c.Count}); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values into consecutive cells starting at (col, row)
func setRow[T any](f *excelize.File, sheet string, col, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return f.SetSheetRow(sheet, cell, &vals)
}
