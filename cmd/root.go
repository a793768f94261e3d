package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"ec2reporter/awsd"
	"ec2reporter/collector"
	"ec2reporter/configuration"
	"ec2reporter/console"
	"ec2reporter/delivery"
	"ec2reporter/errors"
	"ec2reporter/logger"
	"ec2reporter/metrics"
	"ec2reporter/report"
	"ec2reporter/reporter"
)

const packageName = "cmd"

// version is set at build time with -ldflags "-X ec2reporter/cmd.version=..."
var version = "dev"

// flag name -> configuration key
var flagKeys = map[string]string{
	"log-level":        "LOG_LEVEL",
	"log-format":       "LOG_FORMAT",
	"output-dir":       "OUTPUT_DIR",
	"prefix":           "REPORT_PREFIX",
	"no-slack":         "SLACK_DISABLED",
	"metrics-textfile": "METRICS_TEXTFILE",
	"region":           "AWS_REGION",
	"profile":          "AWS_PROFILE",
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ec2reporter",
		Short: "Report every EC2 instance in an AWS account",
		Long: `ec2reporter lists the EC2 instances of every region enabled for the account,
writes them to a formatted Excel workbook (CSV when the workbook cannot be written)
and shares the file with a Slack channel, posting a text summary if the upload fails.`,
		Example: `  ec2reporter                          # scan, write the report, share it on Slack
  ec2reporter --no-slack --output-dir ./reports
  ec2reporter check                    # verify AWS and Slack access only`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return runScan(cmd.Context(), cmd.OutOrStdout(), envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.String("env-file", "", "path to a .env file (default ./.env)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "json", "log encoding: json or console")
	flags.String("output-dir", ".", "directory the report file is written to")
	flags.String("prefix", report.DefaultPrefix, "report file name prefix")
	flags.Bool("no-slack", false, "skip Slack delivery and keep the report locally")
	flags.String("metrics-textfile", "", "write run metrics to this node_exporter textfile")
	flags.String("region", "us-east-1", "AWS region used for region discovery")
	flags.String("profile", "", "AWS shared config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd)
	}

	root.AddCommand(newCheckCmd(), newVersionCmd())
	root.SetVersionTemplate("ec2reporter {{.Version}}\n")
	return root
}

// bindFlags binds explicitly set flags over environment and .env values
func bindFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the root command and exits non-zero when it fails
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// setup loads the configuration and brings up logging with the configured level.
// envFile is the --env-file value; when set, the file must exist.
func setup(envFile string) (*configuration.Config, error) {
	if err := logger.Initialize("info", "json"); err != nil {
		return nil, err
	}

	cfg, err := configuration.InitializeFrom(envFile)
	if err != nil {
		zap.L().Error("Failed to load configuration",
			zap.String("package", packageName),
			zap.String("operation", "config_load"),
			zap.String("env_file", envFile),
			zap.Error(err),
		)
		return nil, err
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid LOG_LEVEL",
			map[string]interface{}{
				"config_key": "LOG_LEVEL",
				"value":      cfg.LogLevel,
			}, err)
	}
	return cfg, nil
}

// newService wires the AWS client, collector, builder and optional Slack pipeline
func newService(ctx context.Context, cfg *configuration.Config, out io.Writer) (*reporter.ReportService, error) {
	log := logger.For(packageName, "newService")

	awsClient, err := awsd.NewAWSClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	printer := console.NewPrinter(out)

	var deliverer reporter.Deliverer
	warnings, err := cfg.SlackSettings()
	if err != nil {
		log.Warn("Slack delivery disabled",
			zap.String("operation", "slack_config"),
			zap.Error(err),
		)
	} else {
		for _, w := range warnings {
			log.Warn(w, zap.String("operation", "slack_config"))
		}
		deliverer = delivery.NewPipeline(cfg)
	}

	service := reporter.NewReportService(
		awsClient,
		collector.New(awsClient, printer),
		report.NewBuilder(cfg.OutputDir, cfg.ReportPrefix),
		deliverer,
		printer,
		zap.L(),
	)
	if cfg.MetricsTextfile != "" {
		service.WithMetrics(metrics.NewMetrics(prometheus.NewRegistry()), cfg.MetricsTextfile)
	}
	return service, nil
}

func runScan(ctx context.Context, out io.Writer, envFile string) error {
	cfg, err := setup(envFile)
	if err != nil {
		return err
	}

	service, err := newService(ctx, cfg, out)
	if err != nil {
		return err
	}

	_, err = service.Run(ctx)
	return err
}
