package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/groupfill-cli/internal/impute"
	"github.com/KaramelBytes/groupfill-cli/internal/table"
	"github.com/KaramelBytes/groupfill-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	clFlags       cleanFlags
	clOutputPath  string
	clReportPath  string
	clPrintReport bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Coerce the target column to numbers and fill gaps with per-group means",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		s, err := clFlags.resolve(cmd)
		if err != nil {
			return err
		}
		log := newLogger()
		defer func() { _ = log.Sync() }()

		out, rep, err := cleanFile(cmd.Context(), path, s, log)
		if err != nil {
			return err
		}

		if clOutputPath != "" {
			if err := table.Write(clOutputPath, out, s.write); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote cleaned table to %s (%d rows, %d filled, %d left missing)\n",
				clOutputPath, out.Len(), rep.Filled, rep.Unfilled)
		} else {
			delim := ','
			switch s.write.Format {
			case table.FormatTSV:
				delim = '\t'
			case table.FormatXLSX:
				return fmt.Errorf("--format xlsx requires --output")
			}
			if err := table.WriteCSV(cmd.OutOrStdout(), out, delim); err != nil {
				return err
			}
		}
		if clReportPath != "" {
			if err := writeReport(clReportPath, rep); err != nil {
				return err
			}
		}
		if clPrintReport {
			fmt.Fprint(cmd.ErrOrStderr(), rep.Markdown())
		} else {
			warnUnfilled(cmd.ErrOrStderr(), rep)
		}
		return nil
	},
}

// cleanFile loads path and runs the imputer over it.
func cleanFile(ctx context.Context, path string, s cleanSettings, log *zap.Logger) (*table.Table, *impute.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tb, err := table.Read(path, s.read)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("table loaded", zap.String("file", path), zap.Int("rows", tb.Len()), zap.Strings("columns", tb.Columns))
	out, rep, err := s.imputer(log).Run(ctx, tb)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	rep.Source = filepath.Base(path)
	return out, rep, nil
}

// writeReport stores the report as JSON for a .json path, Markdown otherwise.
func writeReport(path string, rep *impute.Report) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		data = b
	} else {
		data = []byte(rep.Markdown())
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func warnUnfilled(w io.Writer, rep *impute.Report) {
	for _, msg := range rep.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", msg)
	}
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	clFlags.register(cleanCmd)
	cleanCmd.Flags().StringVarP(&clOutputPath, "output", "o", "", "path for the cleaned table (default: CSV on stdout)")
	cleanCmd.Flags().StringVar(&clReportPath, "report", "", "write a cleaning report (Markdown, or JSON for a .json path)")
	cleanCmd.Flags().BoolVar(&clPrintReport, "print-report", false, "print the cleaning report to stderr")
}
