package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oduo-labs/responder-cli/internal/importer"
)

var importJSON bool

var importCmd = &cobra.Command{
	Use:   "import <file.csv|file.xlsx>",
	Short: "Parse a contact list and print the import safety report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		report, err := importer.ParseFile(args[0], data)
		if err != nil {
			return err
		}

		if importJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Contatos validos: %d\n", len(report.Contacts))
		fmt.Fprintf(out, "Bloqueados (status fechado): %d\n", len(report.Blocked))
		fmt.Fprintf(out, "Duplicados: %d\n", len(report.Duplicates))
		fmt.Fprintf(out, "Sem telefone: %d\n", report.NoPhone)
		for _, sheet := range report.Sheets {
			fmt.Fprintf(out, "Aba %s: %d contatos\n", sheet.Name, sheet.Leads)
		}
		for _, skipped := range report.SkippedSheets {
			fmt.Fprintf(out, "Aba ignorada: %s (%s)\n", skipped.Name, skipped.Reason)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(importCmd)
}
