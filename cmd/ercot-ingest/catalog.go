package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List dated source files in settlement-date order",
	Long:  "Walk the source directory and print every data file with the settlement date taken from its name. Files without a date are listed separately.",
	RunE:  runCatalog,
}

var catalogRoot string

func init() {
	catalogCmd.Flags().StringVar(&catalogRoot, "root", "", "Source directory (overrides source.root_dir)")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfg, _, p, _, err := setup(false)
	if err != nil {
		return err
	}
	root := cfg.Source.RootDir
	if catalogRoot != "" {
		root = catalogRoot
	}

	cat, err := p.Catalog(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range cat.Files {
		fmt.Fprintf(out, "%s\t%s\n", f.Date.Format("2006-01-02"), f.Path)
	}
	for _, d := range cat.Discards {
		fmt.Fprintf(out, "undated\t%s\t%s\n", d.Path, d.Reason)
	}
	if first, last, ok := cat.DateRange(); ok {
		fmt.Fprintf(out, "%d files from %s to %s, %d undated\n",
			len(cat.Files), first.Format("2006-01-02"), last.Format("2006-01-02"), len(cat.Discards))
	} else {
		fmt.Fprintf(out, "no dated files, %d undated\n", len(cat.Discards))
	}
	return nil
}
