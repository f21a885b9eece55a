package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mtlint/internal/diag"
)

var explainCmd = &cobra.Command{
	Use:   "explain [CODE]",
	Short: "Explain a diagnostic code",
	Long:  "Describe what a diagnostic code means and when it fires. Without an argument, list every known code.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	colored := useColor(colorFlag, os.Stdout)

	if len(args) == 0 {
		listCodes(colored)
		return nil
	}

	id := strings.ToUpper(strings.TrimSpace(args[0]))
	code, ok := diag.CodeByID(id)
	if !ok {
		return fmt.Errorf("unknown diagnostic code: %s", args[0])
	}

	header := fmt.Sprintf("%s (%s)", code.ID(), severityName(code.DefaultSeverity()))
	if colored {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintln(os.Stdout, header)
	fmt.Fprintln(os.Stdout, code.Title())
	if detail := code.Detail(); detail != "" {
		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, detail)
	}
	return nil
}

func listCodes(colored bool) {
	for _, code := range diag.Codes {
		id := code.ID()
		if colored {
			id = color.New(color.Bold).Sprint(id)
		}
		fmt.Fprintf(os.Stdout, "%s  %-7s  %s\n", id, severityName(code.DefaultSeverity()), code.Title())
	}
}

func severityName(sev diag.Severity) string {
	return strings.ToLower(sev.String())
}
