// Package cli implements tablectl, a command-line client for the table
// service. Each invocation builds a fresh table state from flags, fetches one
// page, and prints it.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

// Client is the table service API used by the commands.
// *apiclient.Client satisfies this interface.
type Client interface {
	tableview.Fetcher
	ListTableConfigs(ctx context.Context) ([]apiclient.TableConfig, error)
	CreateTable(ctx context.Context, req apiclient.CreateTableRequest) (*apiclient.CreateTableResponse, error)
}

// ClientFactory builds a Client for the resolved base URL and timeout.
type ClientFactory func(baseURL string, timeout time.Duration) Client

// DefaultClientFactory returns a real HTTP client.
func DefaultClientFactory(baseURL string, timeout time.Duration) Client {
	return apiclient.New(baseURL, apiclient.WithTimeout(timeout))
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	apiURL     string
	apiTimeout time.Duration
	logLevel   string
	logFormat  string

	newClient ClientFactory
}

func (o *globalOptions) client() Client {
	return o.newClient(o.apiURL, o.apiTimeout)
}

// NewRootCommand builds the tablectl command tree.
func NewRootCommand(newClient ClientFactory) *cobra.Command {
	opts := &globalOptions{newClient: newClient}

	root := &cobra.Command{
		Use:   "tablectl",
		Short: "Browse and build tables on the table service",
		Long: `tablectl lists custom tables, fetches pages of any table with sorting,
filtering, selection and pinning applied, and creates custom tables from
selected rows.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api-url", defaultAPIURL(), "table service base URL (env API_BASE_URL)")
	pf.DurationVar(&opts.apiTimeout, "api-timeout", 0, "per-request timeout, 0 for none")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newConfigsCommand(opts),
		newFetchCommand(opts),
		newCreateCommand(opts),
		newHighlightCommand(),
	)
	return root
}

// defaultAPIURL honors the same environment variables as the server.
func defaultAPIURL() string {
	for _, key := range []string{"API_BASE_URL", "DTABLES_API_URL"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return apiclient.DefaultBaseURL
}
