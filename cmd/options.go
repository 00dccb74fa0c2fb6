package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/groupfill-cli/internal/impute"
	"github.com/KaramelBytes/groupfill-cli/internal/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cleanFlags are shared by clean and clean-batch. Unset flags fall back to config.
type cleanFlags struct {
	group      string
	target     string
	delimiter  string
	decimal    string
	thousands  string
	format     string
	sheetName  string
	sheetIndex int
	workers    int
}

func (f *cleanFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.group, "group", impute.DefaultGroupColumn, "column whose values define the groups")
	c.Flags().StringVar(&f.target, "target", impute.DefaultTargetColumn, "column to coerce to numbers and fill with the group mean")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV input delimiter: ',' | ';' | 'tab' (default from extension)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for the target column: '.'|'comma'|'auto'")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for the target column: ','|'.'|'space'")
	c.Flags().StringVar(&f.format, "format", "", "output format: csv|tsv|xlsx (default from output extension)")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().IntVar(&f.workers, "workers", 1, "groups processed concurrently")
}

// cleanSettings is the effective configuration of one run.
type cleanSettings struct {
	group   string
	target  string
	read    table.ReadOptions
	write   table.WriteOptions
	number  impute.NumberFormat
	workers int
}

func (f *cleanFlags) resolve(c *cobra.Command) (cleanSettings, error) {
	pick := func(name, flagVal, cfgVal string) string {
		if c.Flags().Changed(name) || cfgVal == "" {
			return flagVal
		}
		return cfgVal
	}
	var s cleanSettings
	var cfgGroup, cfgTarget, cfgDelim, cfgDec, cfgThou, cfgFormat, cfgSheet string
	cfgWorkers := 0
	if cfg != nil {
		cfgGroup, cfgTarget = cfg.GroupColumn, cfg.TargetColumn
		cfgDelim, cfgDec, cfgThou = cfg.Delimiter, cfg.DecimalSeparator, cfg.ThousandsSeparator
		cfgFormat, cfgSheet = cfg.OutputFormat, cfg.SheetName
		cfgWorkers = cfg.Workers
	}
	s.group = strings.TrimSpace(pick("group", f.group, cfgGroup))
	s.target = strings.TrimSpace(pick("target", f.target, cfgTarget))
	if s.group == "" || s.target == "" {
		return s, fmt.Errorf("--group and --target must not be empty")
	}
	delim, err := parseDelimiter(pick("delimiter", f.delimiter, cfgDelim))
	if err != nil {
		return s, err
	}
	nf, err := parseNumberFormat(pick("decimal", f.decimal, cfgDec), pick("thousands", f.thousands, cfgThou))
	if err != nil {
		return s, err
	}
	format := strings.ToLower(strings.TrimSpace(pick("format", f.format, cfgFormat)))
	switch format {
	case "", table.FormatCSV, table.FormatTSV, table.FormatXLSX:
	default:
		return s, fmt.Errorf("unsupported --format: %s (use csv|tsv|xlsx)", format)
	}
	s.read = table.ReadOptions{Delimiter: delim, SheetName: pick("sheet-name", f.sheetName, cfgSheet), SheetIndex: f.sheetIndex}
	s.write = table.WriteOptions{Format: format}
	s.number = nf
	s.workers = f.workers
	if !c.Flags().Changed("workers") && cfgWorkers > 0 {
		s.workers = cfgWorkers
	}
	if s.workers <= 0 {
		s.workers = 1
	}
	return s, nil
}

func (s cleanSettings) imputer(log *zap.Logger) *impute.Imputer {
	return impute.New(s.group, s.target,
		impute.WithWorkers(s.workers),
		impute.WithNumberFormat(s.number),
		impute.WithLogger(log))
}

func parseDelimiter(v string) (rune, error) {
	switch v {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", v)
	}
}

func parseNumberFormat(decimal, thousands string) (impute.NumberFormat, error) {
	var nf impute.NumberFormat
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case "", ".", "dot":
	case ",", "comma":
		nf.DecimalSeparator = ','
	case "auto":
		nf.Auto = true
	default:
		return nf, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma'|'auto')", decimal)
	}
	switch strings.ToLower(thousands) {
	case "":
	case ",":
		nf.ThousandsSeparator = ','
	case ".":
		nf.ThousandsSeparator = '.'
	case "space", " ":
		nf.ThousandsSeparator = ' '
	default:
		return nf, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	dec := nf.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if !nf.Auto && nf.ThousandsSeparator == dec {
		return nf, fmt.Errorf("--decimal and --thousands must differ")
	}
	return nf, nil
}
