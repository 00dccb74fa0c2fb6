package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/groupfill-cli/internal/config"
	"github.com/KaramelBytes/groupfill-cli/internal/table"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set groupfill configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "group_column: %s\n", cfg.GroupColumn)
		fmt.Fprintf(out, "target_column: %s\n", cfg.TargetColumn)
		fmt.Fprintf(out, "decimal_separator: %s\n", cfg.DecimalSeparator)
		if cfg.ThousandsSeparator != "" {
			fmt.Fprintf(out, "thousands_separator: %s\n", cfg.ThousandsSeparator)
		}
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %s\n", cfg.Delimiter)
		}
		if cfg.OutputFormat != "" {
			fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		}
		if cfg.OutputDir != "" {
			fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		}
		if cfg.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", cfg.SheetName)
		}
		fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
		fmt.Fprintf(out, "log_mode: %s\n", cfg.LogMode)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "group_column":
			if val == "" {
				return fmt.Errorf("group_column must not be empty")
			}
			cfg.GroupColumn = val
		case "target_column":
			if val == "" {
				return fmt.Errorf("target_column must not be empty")
			}
			cfg.TargetColumn = val
		case "decimal_separator":
			if _, err := parseNumberFormat(val, cfg.ThousandsSeparator); err != nil {
				return err
			}
			cfg.DecimalSeparator = val
		case "thousands_separator":
			if _, err := parseNumberFormat(cfg.DecimalSeparator, val); err != nil {
				return err
			}
			cfg.ThousandsSeparator = val
		case "delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "output_format":
			switch val {
			case "", table.FormatCSV, table.FormatTSV, table.FormatXLSX:
				cfg.OutputFormat = val
			default:
				return fmt.Errorf("invalid output_format: %s (use csv|tsv|xlsx)", val)
			}
		case "output_dir":
			cfg.OutputDir = val
		case "sheet_name":
			cfg.SheetName = val
		case "workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for workers: %v", val)
			}
			cfg.Workers = i
		case "log_mode":
			switch val {
			case "dev", "prod":
				cfg.LogMode = val
			default:
				return fmt.Errorf("invalid log_mode: %s (use dev or prod)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
