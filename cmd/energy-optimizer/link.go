package main

import (
	"fmt"
	"net/url"

	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/optimization"
	"github.com/iwvelando/energy-optimizer/pkg/querystate"
	"github.com/spf13/cobra"
)

var (
	linkFields fieldFlags
	linkBase   string
	linkFrom   string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print a shareable web form link for the given values",
	Long: `Prints a web form URL whose query reproduces the configured defaults,
overridden by the values of --from-url and then the field flags. Nothing is
sent to the optimization service.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := conf.Fields()

		if linkFrom != "" {
			u, err := url.Parse(linkFrom)
			if err != nil {
				return fmt.Errorf("invalid --from-url: %w", err)
			}
			if err := querystate.Read(u.Query(), &fields); err != nil {
				return err
			}
		}
		linkFields.apply(cmd, &fields)

		if _, err := optimization.ParseSolarSizes(fields.SolarInstallationSizes); err != nil {
			return fmt.Errorf("%s: %w", constants.MessageInvalidSolarSizes, err)
		}

		link, err := querystate.Link(linkBase, fields)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
		return err
	},
}

func init() {
	linkFields.register(linkCmd)
	linkCmd.Flags().StringVar(&linkBase, "base-url", constants.DefaultLinkBase, "web form URL the link points at")
	linkCmd.Flags().StringVar(&linkFrom, "from-url", "", "start from the values of an existing link")
}
