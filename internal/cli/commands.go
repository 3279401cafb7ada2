package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/specialistvlad/procgrid/internal/app"
	"github.com/specialistvlad/procgrid/internal/conditions"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/dump"
	"github.com/specialistvlad/procgrid/internal/engine"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	reportText = "text"
	reportJSON = "json"
	reportYAML = "yaml"
)

func (c *cli) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build PROCESS_PATH",
		Short: "Assemble and validate a process, then print a summary.",
		Args:  processArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(args[0])
			if err != nil {
				return err
			}
			p, err := a.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Process %q assembled: %d stages, %d sequences, %d tasks, %d outputs, %d scheduled paths.\n",
				p.Name(), len(p.Stages()), len(p.Sequences()), len(p.Tasks()), len(p.Outputs()), len(p.Schedule().Entries))
			if cond := p.Conditions(); cond.Requested != "" {
				fmt.Fprintf(c.out, "Conditions: %s -> %s\n", cond.Requested, cond.Resolved)
			}
			return nil
		},
	}
	processFlags(cmd)
	return cmd
}

func (c *cli) dumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump PROCESS_PATH",
		Short: "Assemble a process and write its frozen form.",
		Args:  processArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := c.v.GetString("format")
			if !slices.Contains(dump.Formats(), format) {
				return &ExitError{Code: 2, Message: fmt.Sprintf("invalid format: must be one of %v", dump.Formats())}
			}
			a, err := c.newApp(args[0])
			if err != nil {
				return err
			}
			return a.Dump(cmd.Context(), c.out, format)
		},
	}
	processFlags(cmd)
	cmd.Flags().String("format", dump.FormatYAML, "Dump format. Options: 'yaml', 'json' or 'hcl'.")
	return cmd
}

func (c *cli) simulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate PROCESS_PATH",
		Short: "Walk the schedule of a process over synthetic events.",
		Args:  processArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := c.v.GetString("output")
			if !slices.Contains([]string{reportText, reportJSON, reportYAML}, format) {
				return &ExitError{Code: 2, Message: "invalid output: must be 'text', 'json' or 'yaml'"}
			}
			a, err := c.newApp(args[0])
			if err != nil {
				return err
			}
			report, err := a.Simulate(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(c.out, report, format)
		},
	}
	processFlags(cmd)
	f := cmd.Flags()
	f.Int64("events", 0, "Number of events to process. Defaults to the process max events.")
	f.Int("streams", 0, "Number of concurrent streams. Defaults to the process options.")
	f.Uint32("run", engine.DefaultRun, "Run number of every event.")
	f.Uint64("events-per-lumi", engine.DefaultEventsPerLumi, "Events per luminosity block.")
	f.StringP("output", "o", reportText, "Report format. Options: 'text', 'json' or 'yaml'.")
	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve PROCESS_PATH",
		Short: "Assemble a process and serve it for inspection over HTTP.",
		Args:  processArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(args[0])
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
	processFlags(cmd)
	cmd.Flags().String("listen", "127.0.0.1:8080", "Address the inspection server listens on.")
	return cmd
}

func (c *cli) conditionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "Manage the conditions alias catalog.",
	}
	cmd.PersistentFlags().String("db", "conditions.db", "Path to the SQLite alias catalog.")

	open := func(cmd *cobra.Command) (*conditions.Catalog, error) {
		ctx := ctxlog.WithLogger(cmd.Context(), app.NewLogger(c.v.GetString("log-level"), c.v.GetString("log-format"), c.errOut))
		return conditions.OpenCatalog(ctx, c.v.GetString("db"))
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the aliases stored in the catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := open(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()

			aliases, err := cat.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ALIAS\tGLOBAL TAG\tDESCRIPTION")
			for _, a := range aliases {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Alias, a.GlobalTag, a.Description)
			}
			return tw.Flush()
		},
	}

	set := &cobra.Command{
		Use:   "set ALIAS GLOBAL_TAG",
		Short: "Store or replace an alias.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return usageError(err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := open(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()
			return cat.Put(cmd.Context(), conditions.Alias{
				Alias:       args[0],
				GlobalTag:   args[1],
				Description: c.v.GetString("description"),
			})
		},
	}
	set.Flags().String("description", "", "Free-text description of the alias.")

	importBuiltin := &cobra.Command{
		Use:   "import-builtin",
		Short: "Copy the built-in alias table into the catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := open(cmd)
			if err != nil {
				return err
			}
			defer cat.Close()
			if err := cat.Import(cmd.Context(), conditions.BuiltinAliases); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Imported %d aliases.\n", len(conditions.BuiltinAliases))
			return nil
		},
	}

	cmd.AddCommand(list, set, importBuiltin)
	return cmd
}

func writeReport(w io.Writer, r *engine.Report, format string) error {
	switch format {
	case reportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case reportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Events: %d, streams: %d\n\n", r.Events, r.Streams)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tVISITED\tPASSED")
	for _, p := range r.Paths {
		kind := "path"
		if p.End {
			kind = "end_path"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.Label, kind, p.Visited, p.Passed)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "OUTPUT\tPLUGIN\tEVENTS\tBRANCHES")
	for _, o := range r.Outputs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", o.Label, o.Plugin, o.Events, len(o.Products))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Missing) > 0 {
		fmt.Fprintln(w, "\nMissing products:")
		tags := make([]string, 0, len(r.Missing))
		for tag := range r.Missing {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		for _, tag := range tags {
			fmt.Fprintf(w, "  %s: %d events\n", tag, r.Missing[tag])
		}
	}
	return nil
}
