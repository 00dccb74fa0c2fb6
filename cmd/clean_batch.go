package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/KaramelBytes/groupfill-cli/internal/table"
	"github.com/KaramelBytes/groupfill-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cbFlags     cleanFlags
	cbOutDir    string
	cbReportDir string
	cbQuiet     bool
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV/XLSX files with progress output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			} else if strings.ContainsAny(arg, "*?[") {
				// a pattern must not pick up outputs of an earlier run
				matches = slices.DeleteFunc(matches, isCleanOutput)
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		s, err := cbFlags.resolve(cmd)
		if err != nil {
			return err
		}
		outDir := cbOutDir
		if outDir == "" && cfg != nil {
			outDir = cfg.OutputDir
		}
		for _, dir := range []string{outDir, cbReportDir} {
			if dir == "" {
				continue
			}
			if err := utils.EnsureDir(dir); err != nil {
				return err
			}
		}
		log := newLogger()
		defer func() { _ = log.Sync() }()

		stdout := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !cbQuiet {
				fmt.Fprintf(stdout, "[%d/%d] Cleaning %s...\n", i+1, total, filepath.Base(path))
			}
			out, rep, err := cleanFile(cmd.Context(), path, s, log)
			if err != nil {
				return err
			}

			format := s.write.Format
			if format == "" {
				format = table.FormatFromPath(path)
			}
			ext := ".clean." + format
			outFile := utils.DerivedPath(path, outDir, ext)
			if cand := utils.UniquePath(outFile, ext); cand != outFile {
				if !cbQuiet {
					fmt.Fprintf(stdout, "⚠ Detected existing output, writing to %s to avoid overwrite.\n", filepath.Base(cand))
				}
				outFile = cand
			}
			w := s.write
			w.Format = format
			if err := table.Write(outFile, out, w); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}
			if cbReportDir != "" {
				repFile := utils.UniquePath(utils.DerivedPath(path, cbReportDir, ".clean.md"), ".clean.md")
				if err := writeReport(repFile, rep); err != nil {
					return err
				}
			}
			if !cbQuiet {
				fmt.Fprintf(stdout, "✓ Wrote %s (%d rows, %d groups, %d filled, %d left missing)\n",
					filepath.Base(outFile), out.Len(), len(rep.Groups), rep.Filled, rep.Unfilled)
				warnUnfilled(cmd.ErrOrStderr(), rep)
			}
		}
		return nil
	},
}

// isCleanOutput matches names written by clean-batch, such as stock.clean.csv or stock__2.clean.xlsx.
func isCleanOutput(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), ".clean")
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	cbFlags.register(cleanBatchCmd)
	cleanBatchCmd.Flags().StringVar(&cbOutDir, "out-dir", "", "directory for cleaned files (default: next to each input)")
	cleanBatchCmd.Flags().StringVar(&cbReportDir, "report-dir", "", "directory for Markdown cleaning reports")
	cleanBatchCmd.Flags().BoolVar(&cbQuiet, "quiet", false, "suppress progress and non-essential output")
}
