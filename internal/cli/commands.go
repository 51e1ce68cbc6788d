package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

func newConfigsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "configs",
		Short: "List custom tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configs, err := opts.client().ListTableConfigs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tables: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderConfigs(configs))
			return nil
		},
	}
}

type fetchOptions struct {
	page     int
	pageSize int
	sorts    []string
	global   string
	filters  []string
	selects  []string
	pins     []string
	html     bool
}

func newFetchCommand(opts *globalOptions) *cobra.Command {
	var fo fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <view>",
		Short: "Fetch one page of a table",
		Long: `Fetch one page of the entities table or a custom table by config id.

Each --sort advances the sort cycle for its column once, so repeating a
column moves it from ascending to descending to unsorted.`,
		Example: `  tablectl fetch entities --sort "Legal Name" --filter Status=active
  tablectl fetch 12 --page 2 --select 41 --pin 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := tableview.ParseView(args[0])
			if err != nil {
				return err
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			store, err := buildStore(cmd.Context(), fo, changed)
			if err != nil {
				return err
			}

			page, err := tableview.NewLoader(opts.client()).Load(cmd.Context(), view, store)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", view, err)
			}

			state := store.Snapshot()
			if fo.html {
				fmt.Fprintln(cmd.OutOrStdout(), renderHTML(page, state))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPage(page, state))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&fo.page, "page", 1, "page number")
	f.IntVar(&fo.pageSize, "page-size", core.DefaultPageSize, "rows per page")
	f.StringArrayVar(&fo.sorts, "sort", nil, "advance the sort cycle for a column (repeatable)")
	f.StringVar(&fo.global, "global", "", "free-text filter across all columns")
	f.StringArrayVar(&fo.filters, "filter", nil, "column filter as column=value (repeatable)")
	f.StringArrayVar(&fo.selects, "select", nil, "select a row id (repeatable)")
	f.StringArrayVar(&fo.pins, "pin", nil, "pin a row id to the top (repeatable)")
	f.BoolVar(&fo.html, "html", false, "print HTML with search terms highlighted")
	return cmd
}

// buildStore replays the flags as store operations in the order a user
// would perform them: page size, sorts, filters, page, then selection and pins.
func buildStore(ctx context.Context, fo fetchOptions, changed map[string]bool) (*core.Store, error) {
	var storeOpts []core.Option
	if changed["page-size"] {
		if fo.pageSize <= 0 {
			return nil, fmt.Errorf("invalid page size %d", fo.pageSize)
		}
		storeOpts = append(storeOpts, core.WithPageSize(fo.pageSize))
	}
	store := core.NewStore(storeOpts...)

	log := logging.FromContext(ctx)
	store.Subscribe(func(c core.Change) {
		log.Debug("table state changed", "op", c.Op, "page", c.State.Page,
			"sort", c.State.Sort.Column, "selected", len(c.State.SelectedRows))
	})

	for _, col := range fo.sorts {
		store.SetSort(col)
	}
	if fo.global != "" {
		store.SetGlobalFilter(fo.global)
	}
	for _, raw := range fo.filters {
		col, val, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("invalid filter %q: want column=value", raw)
		}
		store.SetColumnFilter(strings.TrimSpace(col), val)
	}
	if changed["page"] {
		store.SetPage(fo.page)
	}
	for _, id := range fo.selects {
		store.ToggleRowSelection(id)
	}
	for _, id := range fo.pins {
		store.ToggleRowPin(id)
	}
	return store, nil
}

type createOptions struct {
	name       string
	srcTable   string
	rows       []string
	datapoints []string
	columns    []string
	sharedWith string
}

func newCreateCommand(opts *globalOptions) *cobra.Command {
	var co createOptions

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a custom table from rows of a source table",
		Example: `  tablectl create --name Shortlist --row "HRB 1" --row "HRB 2" --column "Legal Name:text"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := co.request()
			if err != nil {
				return err
			}

			resp, err := opts.client().CreateTable(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created table %q (config %d, internal %s)\n",
				resp.Name, resp.ConfigID, resp.DebugInternalTable)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&co.name, "name", "", "name of the new table")
	f.StringVar(&co.srcTable, "src-table", tableview.EntitiesView, "source table")
	f.StringArrayVar(&co.rows, "row", nil, "row id to include (repeatable)")
	f.StringArrayVar(&co.datapoints, "datapoint", nil, "datapoint id to include (repeatable)")
	f.StringArrayVar(&co.columns, "column", nil, "column as name:type (repeatable)")
	f.StringVar(&co.sharedWith, "shared-with", "", "share the table with this user")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (co createOptions) request() (apiclient.CreateTableRequest, error) {
	req := apiclient.CreateTableRequest{
		Name:         strings.TrimSpace(co.name),
		SourceTable:  co.srcTable,
		RowIDs:       co.rows,
		DatapointIDs: co.datapoints,
		Columns:      []apiclient.ColumnSpec{},
		SharedWith:   co.sharedWith,
	}
	if req.Name == "" {
		return req, fmt.Errorf("table name is required")
	}
	if len(req.RowIDs) == 0 {
		return req, fmt.Errorf("at least one --row is required")
	}
	if req.DatapointIDs == nil {
		req.DatapointIDs = []string{}
	}

	for _, raw := range co.columns {
		col, err := apiclient.ParseColumnSpec(raw)
		if err != nil {
			return req, err
		}
		req.Columns = append(req.Columns, col)
	}
	return req, nil
}

func newHighlightCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "highlight <text> [terms...]",
		Short: "Escape text as HTML and mark each search term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), core.HighlightText(args[0], args[1:]))
			return nil
		},
	}
}
