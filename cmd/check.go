package cmd

import (
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify AWS permissions and Slack access without scanning",
		Long: `check looks up the AWS caller identity, calls ec2:DescribeRegions to confirm
the scan permissions and, unless Slack is disabled, validates the bot token
with auth.test and the channel with conversations.info.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := setup(envFile)
			if err != nil {
				return err
			}

			service, err := newService(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return service.Check(cmd.Context())
		},
	}
}
