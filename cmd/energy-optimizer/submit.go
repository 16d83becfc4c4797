package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/energy-optimizer/internal/client"
	"github.com/iwvelando/energy-optimizer/internal/config"
	"github.com/iwvelando/energy-optimizer/internal/form"
	"github.com/iwvelando/energy-optimizer/internal/render"
	"github.com/iwvelando/energy-optimizer/pkg/constants"
	"github.com/iwvelando/energy-optimizer/pkg/querystate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	submitFields       fieldFlags
	submitClient       clientFlags
	submitOutputFormat string
	submitLink         bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send one optimization request and print the result",
	Long: `Builds a request from the configured defaults, an optional shared link,
optional service defaults and the command line flags (in increasing order of
precedence), sends it to the optimization service and prints the result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSubmit(ctx, cmd, conf, logger, cmd.OutOrStdout())
	},
}

func init() {
	submitFields.register(submitCmd)
	submitClient.register(submitCmd)
	submitCmd.Flags().StringVar(&submitOutputFormat, "output-format", "", "output format override: pretty, json")
	submitCmd.Flags().BoolVar(&submitLink, "link", false, "print a shareable link after a successful run")
}

func runSubmit(ctx context.Context, cmd *cobra.Command, conf *config.Configuration, logger *zap.Logger, out io.Writer) error {
	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if submitOutputFormat != "" {
		outputFormat = submitOutputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	terminal, err := render.ForFormat(outputFormat, out)
	if err != nil {
		return err
	}
	if outputFormat == constants.OutputFormatJSON {
		terminal = render.SettledOnly(terminal)
	}

	renderers := render.Multi{terminal}
	if conf.MQTT.Enabled() {
		mqtt, err := render.NewMQTT(conf.MQTT, logger)
		if err != nil {
			return err
		}
		defer mqtt.Close()
		renderers = append(renderers, mqtt)
	}

	f, c, err := newForm(conf, logger, &submitClient, renderers)
	if err != nil {
		return err
	}

	// Service defaults never override the shared link; flags override both.
	if submitClient.loadDefaults || conf.LoadDefaults {
		f.LoadDefaults(ctx, c)
	}
	fields := f.Fields()
	submitFields.apply(cmd, &fields)
	f.SetFields(fields)

	if _, err := f.Submit(ctx); err != nil {
		logger.Debug("submission failed",
			zap.String("op", "main.submit"),
			zap.String("endpoint", c.BaseURL()),
			zap.Error(err),
		)
		return err
	}

	if submitLink {
		link, err := shareLink(submitClient.fromURL, f)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, link)
	}
	return nil
}

// newForm builds the client and the form shared by submit and tui. Fields
// start from the configured defaults, overridden by the --from-url query.
func newForm(conf *config.Configuration, logger *zap.Logger, cf *clientFlags, renderer form.Renderer) (*form.Form, *client.Client, error) {
	endpoint := conf.Endpoint
	if cf.endpoint != "" {
		endpoint = cf.endpoint
	}

	c, err := client.New(endpoint,
		client.WithTimeout(conf.Timeout),
		client.WithLogger(logger),
		client.WithHeader("User-Agent", "energy-optimizer/"+version),
	)
	if err != nil {
		return nil, nil, err
	}

	f := form.New(c,
		form.WithFields(conf.Fields()),
		form.WithRenderer(renderer),
		form.WithLogger(logger),
	)

	if cf.fromURL != "" {
		u, err := url.Parse(cf.fromURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --from-url: %w", err)
		}
		if !querystate.Present(u.Query()) {
			logger.Warn("shared link carries no form values",
				zap.String("op", "main.newForm"),
				zap.String("url", cf.fromURL),
			)
		}
		if err := f.RestoreQuery(u.Query()); err != nil {
			return nil, nil, err
		}
	}

	return f, c, nil
}

// shareLink returns a link reproducing the form's last submitted values.
func shareLink(base string, f *form.Form) (string, error) {
	if base == "" {
		return querystate.Link(constants.DefaultLinkBase, f.Fields())
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid link base %q: %w", base, err)
	}
	if q := f.Query(); q != nil {
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return querystate.Link(base, f.Fields())
}
