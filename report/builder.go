package report

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"ec2reporter/awsd/models"
	"ec2reporter/errors"
)

const (
	packageName = "report"

	// DefaultPrefix is the report filename prefix used when none is configured
	DefaultPrefix = "AWS_EC2_Instances"

	filenameLayout = "20060102_150405"
)

// Writer renders a scan into a file of one format
type Writer interface {
	Format() models.Format
	Write(path string, scan *models.ScanResult, generated time.Time) error
}

// Builder produces the report artifact, falling back to the delimited writer
// when the tabular one fails
type Builder struct {
	dir      string
	prefix   string
	primary  Writer
	fallback Writer
	now      func() time.Time
}

// NewBuilder creates a Builder writing into dir with the xlsx writer and the CSV fallback
func NewBuilder(dir, prefix string) *Builder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Builder{
		dir:      dir,
		prefix:   prefix,
		primary:  XLSXWriter{},
		fallback: CSVWriter{},
		now:      time.Now,
	}
}

// Filename returns the report file name for a prefix, format and generation time
func Filename(prefix string, format models.Format, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format(filenameLayout), format)
}

// Build writes the report for scan. An empty scan produces no artifact and touches nothing.
func (b *Builder) Build(scan *models.ScanResult) (*models.Artifact, error) {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "Build"),
	)

	if scan.Empty() {
		logger.Info("No instances found, skipping report",
			zap.String("operation", "report_skip"),
		)
		return nil, nil
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, errors.New(errors.ErrReportWrite, "could not create output directory",
			map[string]interface{}{
				"dir": b.dir,
			}, err)
	}

	generated := b.now()

	artifact, err := b.write(b.primary, scan, generated)
	if err == nil {
		logger.Info("Report written",
			zap.String("operation", "report_write"),
			zap.String("path", artifact.Path),
			zap.String("format", string(artifact.Format)),
			zap.Int64("size", artifact.Size),
		)
		return artifact, nil
	}

	logger.Warn("Tabular report failed, falling back to CSV",
		zap.String("operation", "report_fallback"),
		zap.Error(err),
	)

	artifact, fallbackErr := b.write(b.fallback, scan, generated)
	if fallbackErr != nil {
		logger.Error("CSV fallback failed",
			zap.String("operation", "report_fallback"),
			zap.Error(fallbackErr),
		)
		return nil, errors.New(errors.ErrReportWrite, "could not write report in any format",
			map[string]interface{}{
				"dir":           b.dir,
				"primary_error": err.Error(),
			}, fallbackErr)
	}

	logger.Info("Report written",
		zap.String("operation", "report_write"),
		zap.String("path", artifact.Path),
		zap.String("format", string(artifact.Format)),
		zap.Int64("size", artifact.Size),
	)
	return artifact, nil
}

// write runs one writer and removes whatever it left behind on failure
func (b *Builder) write(w Writer, scan *models.ScanResult, generated time.Time) (*models.Artifact, error) {
	path := filepath.Join(b.dir, Filename(b.prefix, w.Format(), generated))

	if err := w.Write(path, scan, generated); err != nil {
		removePartial(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &models.Artifact{
		Path:   path,
		Format: w.Format(),
		Size:   info.Size(),
	}, nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("Could not remove partial report",
			zap.String("package", packageName),
			zap.String("operation", "report_cleanup"),
			zap.String("path", path),
			zap.Error(err),
		)
	}
}
