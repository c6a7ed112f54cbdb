package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/rosterbridge-backend/internal/app"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// app.New migrates on open; nothing else to do.
			return withApp(func(a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newSeedStatusesCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-statuses",
		Short: "Insert the default status options and list the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app.App) error {
				if _, err := a.Services.Statuses.SeedDefaults(cmd.Context()); err != nil {
					return err
				}
				opts, err := a.Services.Statuses.List(cmd.Context())
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), g.format, opts)
			})
		},
	}
}

func newStageCommand(g *globalFlags) *cobra.Command {
	var (
		agentID   string
		agentKey  string
		firstName string
		lastName  string
		autoApply bool
	)
	cmd := &cobra.Command{
		Use:   "stage <file>",
		Short: "Stage a CSV or XLSX roster file for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			req := services.UploadRequest{
				Filename:  filepath.Base(args[0]),
				Content:   content,
				AutoApply: autoApply,
				Actor:     g.actor,
			}
			switch {
			case agentID != "":
				id, err := uuid.Parse(agentID)
				if err != nil {
					return fmt.Errorf("invalid --agent-id: %w", err)
				}
				req.AgentID = &id
			case agentKey != "":
				req.NewAgent = &services.NewAgent{BusinessKey: agentKey, FirstName: firstName, LastName: lastName}
			default:
				return fmt.Errorf("one of --agent-id or --agent-key is required")
			}
			return withApp(func(a *app.App) error {
				res, err := a.Services.Uploads.Upload(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), g.format, res)
			})
		},
	}
	cmd.Flags().StringVar(&agentID, "agent-id", "", "existing agent id")
	cmd.Flags().StringVar(&agentKey, "agent-key", "", "agent business key, created when unknown")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name for a new agent")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name for a new agent")
	cmd.Flags().BoolVar(&autoApply, "auto-apply", false, "apply the batch right after staging")
	return cmd
}

func newDiffCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <batch-id>",
		Short: "Show the diff of a staged batch against the current roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid batch id: %w", err)
			}
			return withApp(func(a *app.App) error {
				d, err := a.Services.Diffs.Preview(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), g.format, d)
			})
		},
	}
}

func newApplyCommand(g *globalFlags) *cobra.Command {
	var sel services.Selection
	cmd := &cobra.Command{
		Use:   "apply <batch-id>",
		Short: "Apply a staged batch, or only the selected keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid batch id: %w", err)
			}
			return withApp(func(a *app.App) error {
				var res *services.ApplyResult
				if sel.Empty() {
					res, err = a.Services.Apply.Apply(cmd.Context(), id, g.actor)
				} else {
					res, err = a.Services.Apply.ApplySelected(cmd.Context(), id, sel, g.actor)
				}
				if err != nil {
					return err
				}
				if err := printResult(cmd.OutOrStdout(), g.format, res); err != nil {
					return err
				}
				if !res.OK {
					return fmt.Errorf("%s", res.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&sel.Added, "added", nil, "person keys to add (selective apply)")
	cmd.Flags().StringSliceVar(&sel.Removed, "removed", nil, "person keys to remove (selective apply)")
	cmd.Flags().StringSliceVar(&sel.Changed, "changed", nil, "person keys to update (selective apply)")
	return cmd
}

func newRejectCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <batch-id>",
		Short: "Reject a staged batch without touching the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid batch id: %w", err)
			}
			return withApp(func(a *app.App) error {
				res, err := a.Services.Apply.Reject(cmd.Context(), id, g.actor)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), g.format, res)
			})
		},
	}
}

func newExportCommand() *cobra.Command {
	var (
		agentID string
		status  string
		columns string
		format  string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active roster to a CSV or XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cols, err := services.ParseColumns(columns)
			if err != nil {
				return err
			}
			req := services.ExportRequest{StatusKey: status, Columns: cols, Format: services.ExportFormat(format)}
			if agentID != "" {
				id, err := uuid.Parse(agentID)
				if err != nil {
					return fmt.Errorf("invalid --agent-id: %w", err)
				}
				req.AgentID = &id
			}
			return withApp(func(a *app.App) error {
				file, err := a.Services.Exports.Export(cmd.Context(), req)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = file.Filename
				}
				if err := os.WriteFile(path, file.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(file.Data))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&agentID, "agent-id", "", "limit to one agent")
	cmd.Flags().StringVar(&status, "status", "", "limit to one status key")
	cmd.Flags().StringVar(&columns, "columns", "", "comma separated column ids")
	cmd.Flags().StringVar(&format, "file-format", "xlsx", "file format: csv, xlsx")
	cmd.Flags().StringVarP(&out, "out", "f", "", "output path (default: generated name)")
	return cmd
}

func newTemplateCommand() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty upload file with the recognised headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app.App) error {
				file, err := a.Services.Exports.Template(services.ExportFormat(format))
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = file.Filename
				}
				if err := os.WriteFile(path, file.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "file-format", "xlsx", "file format: csv, xlsx")
	cmd.Flags().StringVarP(&out, "out", "f", "", "output path (default: generated name)")
	return cmd
}
