package report

import (
	"encoding/csv"
	"os"
	"time"

	"ec2reporter/awsd/models"
)

// CSVWriter writes the flat fallback report: a header and one line per record
type CSVWriter struct{}

func (CSVWriter) Format() models.Format {
	return models.FormatDelimited
}

func (CSVWriter) Write(path string, scan *models.ScanResult, _ time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(Columns); err != nil {
		file.Close()
		return err
	}
	for _, rec := range scan.Records {
		if err := writer.Write(Cells(rec)); err != nil {
			file.Close()
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
