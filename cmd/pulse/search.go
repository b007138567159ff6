package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"samilabs.app/pulse/internal/export"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/pipeline"
)

type searchOptions struct {
	limit    int
	format   string
	output   string
	adapters []string
	minYield int
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <entity>",
		Short: "Collect recent public mentions of an entity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of mentions")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table, csv or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringSliceVar(&opts.adapters, "adapters", nil, "Adapter order override, e.g. forum,review")
	cmd.Flags().IntVar(&opts.minYield, "min-yield", 0, "Stop once this many mentions are collected")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, entity string, opts *searchOptions) error {
	switch opts.format {
	case "table", "csv", "json":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	result, err := a.aggregate(cmd, entity, opts.limit, opts.adapters, opts.minYield)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error {
		switch opts.format {
		case "csv":
			return export.WriteCSV(w, result.Rows())
		case "json":
			return export.WriteJSON(w, result)
		default:
			return renderMentions(w, result)
		}
	}

	if opts.output == "" {
		return write(cmd.OutOrStdout())
	}

	ext := opts.format
	if ext == "table" {
		ext = "txt"
	}
	output := outputPath(opts.output, result.Query, "mentions", ext)
	if err := writeFile(output, write); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d mentions to %s\n", len(result.Mentions), output)
	return nil
}

// aggregate applies command-line overrides to the configured pipeline and
// runs it.
func (a *app) aggregate(cmd *cobra.Command, entity string, limit int, adapters []string, minYield int) (*model.AggregationResult, error) {
	cfg := a.cfg
	if len(adapters) > 0 {
		cfg.Aggregation.AdapterOrder = adapters
	}
	if minYield > 0 {
		cfg.Aggregation.MinYield = minYield
	}
	if err := cfg.Aggregation.Validate(); err != nil {
		return nil, err
	}

	agg, err := a.newAggregator(cfg)
	if err != nil {
		return nil, err
	}

	result, err := agg.Aggregate(cmd.Context(), entity, limit)
	if err != nil {
		var noData *pipeline.NoDataFoundError
		if errors.As(err, &noData) {
			printNoData(cmd.ErrOrStderr(), noData)
		}
		return nil, err
	}
	if result.Partial {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Deadline reached before every source was tried; results are partial."))
	}
	return result, nil
}

func printNoData(w io.Writer, err *pipeline.NoDataFoundError) {
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("No data found for %q.", err.Query)))
	fmt.Fprintf(w, "Sources tried: %s\n", strings.Join(err.SourcesTried(), ", "))
}
