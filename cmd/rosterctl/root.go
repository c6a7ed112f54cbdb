package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/rosterbridge-backend/internal/app"
)

type globalFlags struct {
	format string
	actor  string
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Operate roster uploads from the command line",
		Long: `rosterctl stages roster files, previews their diff against the current
roster and applies or rejects them using the same services as the HTTP API.
Database settings come from the environment (DB_DRIVER, POSTGRES_*, SQLITE_PATH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.format, "format", "o", "json", "output format: json, yaml")
	root.PersistentFlags().StringVar(&g.actor, "actor", "rosterctl", "actor recorded in audit entries")

	root.AddCommand(
		newMigrateCommand(),
		newSeedStatusesCommand(g),
		newStageCommand(g),
		newDiffCommand(g),
		newApplyCommand(g),
		newRejectCommand(g),
		newExportCommand(),
		newTemplateCommand(),
	)
	return root
}

// withApp builds the full application for the duration of one command.
func withApp(fn func(a *app.App) error) error {
	a, err := app.New()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printResult(w io.Writer, format string, v any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		// Round trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	return fmt.Errorf("unknown output format %q", format)
}
