package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/procgrid/internal/app"
	"github.com/specialistvlad/procgrid/internal/hcl"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read as a flag value:
// --log-level is also read from PROCGRID_LOG_LEVEL.
const EnvPrefix = "PROCGRID"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// cli carries the writers and the flag store shared by every command.
type cli struct {
	out     io.Writer
	errOut  io.Writer
	v       *viper.Viper
	modules []registry.Module
}

// Execute runs the command line given by args. Results are written to out,
// logs to errOut. Usage and configuration problems are returned as an
// *ExitError with code 2.
func Execute(ctx context.Context, args []string, out, errOut io.Writer, modules ...registry.Module) error {
	root := NewRootCommand(out, errOut, modules...)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand creates the procgrid command tree. Modules default to the
// application's core modules.
func NewRootCommand(out, errOut io.Writer, modules ...registry.Module) *cobra.Command {
	c := &cli{out: out, errOut: errOut, v: viper.New(), modules: modules}
	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "procgrid",
		Short: "Assemble, inspect and dry-run declarative event-processing configurations.",
		Long: `procgrid assembles an event-processing process from HCL fragments,
applies customisations, freezes the result and lets you dump it, serve it
for inspection, or walk its schedule over synthetic events.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.preRun,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.String("env-file", ".env", "Dotenv file loaded before flags are read. Missing files are ignored.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	root.AddCommand(
		c.buildCommand(),
		c.dumpCommand(),
		c.simulateCommand(),
		c.serveCommand(),
		c.conditionsCommand(),
	)
	return root
}

// preRun loads the dotenv file and binds the flags of the executing command
// so that each can also be set through the environment.
func (c *cli) preRun(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return usageError(err)
		}
	}
	return c.v.BindPFlags(cmd.Flags())
}

// processFlags are shared by every command that assembles a process.
func processFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceP("fragments", "f", nil, "Fragment files or directories, in addition to the process path.")
	f.String("conditions-db", "", "SQLite conditions alias catalog consulted before built-in aliases.")
	f.Int64P("max-events", "n", 0, "Override the number of input events.")
	f.Uint32("threads", 0, "Override the number of threads.")
	f.Uint32("number-of-streams", 0, "Override the number of streams.")
	f.String("file-mode", "", "Override the file mode. Options: 'FULLMERGE' or 'NOMERGE'.")
	f.Uint32("stack-size-kb", 0, "Override the thread stack size in KB.")
	f.StringSlice("filein", nil, "Override the source file names.")
	f.String("conditions", "", "Override the requested global tag.")
}

func processArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

// config turns the bound flags into a validated app configuration.
func (c *cli) config(processPath string) (*app.Config, error) {
	v := c.v
	cfg := app.Config{
		ProcessPath:   processPath,
		FragmentPaths: v.GetStringSlice("fragments"),
		LogFormat:     v.GetString("log-format"),
		LogLevel:      v.GetString("log-level"),
		ConditionsDB:  v.GetString("conditions-db"),
		Events:        v.GetInt64("events"),
		Streams:       v.GetInt("streams"),
		Run:           v.GetUint32("run"),
		EventsPerLumi: v.GetUint64("events-per-lumi"),
		ListenAddr:    v.GetString("listen"),
	}

	ov := &cfg.Overrides
	if v.IsSet("max-events") {
		n := v.GetInt64("max-events")
		ov.MaxEvents = &n
	}
	if v.IsSet("threads") {
		n := v.GetUint32("threads")
		ov.NumberOfThreads = &n
	}
	if v.IsSet("number-of-streams") {
		n := v.GetUint32("number-of-streams")
		ov.NumberOfStreams = &n
	}
	if v.IsSet("file-mode") {
		mode := strings.ToUpper(v.GetString("file-mode"))
		ov.FileMode = &mode
	}
	if v.IsSet("stack-size-kb") {
		n := v.GetUint32("stack-size-kb")
		ov.SizeOfStackForThreadsInKB = &n
	}
	ov.FileNames = v.GetStringSlice("filein")
	ov.GlobalTag = v.GetString("conditions")

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return validated, nil
}

// newApp loads the process at processPath. Environment variables are
// visible to HCL files as env.NAME.
func (c *cli) newApp(processPath string) (*app.App, error) {
	cfg, err := c.config(processPath)
	if err != nil {
		return nil, err
	}
	return app.NewApp(c.errOut, cfg, hcl.NewLoader(nil), c.modules...)
}
