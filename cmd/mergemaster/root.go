package main

import (
	"io"
	"os"
	"strings"

	"mergemaster/cmd/mergemaster/cli"
	"mergemaster/internal/config"
	"mergemaster/internal/log"
	"mergemaster/internal/merge"
	"mergemaster/internal/progress"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables consulted when the matching flag is absent.
const (
	envConfig   = "MERGEMASTER_CONFIG"
	envLogLevel = "MERGEMASTER_LOG_LEVEL"
	envProgress = "MERGEMASTER_PROGRESS"
)

// globalFlags are shared by every command.
type globalFlags struct {
	cfgFile  string
	logLevel string
	logJSON  bool

	// Resolved in PersistentPreRunE
	cfg *config.Config
}

// mergeFlags are the selection and layout flags of a merge.
type mergeFlags struct {
	inputs     []string
	output     string
	types      []string
	extensions []string
	exclude    []string
	skip       []string
	ignore     []string
	flatten    bool
	dryRun     bool
	progress   string
}

// NewRootCmd creates the root command. Running it performs a merge.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	f := &mergeFlags{}

	rootCmd := &cobra.Command{
		Use:   "mergemaster -i <dirs> -o <dest>",
		Short: "Merge files from several folders into one",
		Long: `MergeMaster copies files from several source folders into one destination.
Files can be selected by type category or extension, folders skipped by keyword,
and the folder structure kept or flattened. Existing files are never overwritten:
a name that is taken gets a _1, _2, ... suffix.`,
		Example: `  mergemaster -i ~/Pictures,~/Downloads -o ~/Merged -t image,video -F
  mergemaster -i a,b -o out -x .go,.md -e .tmp -k node_modules,.git`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, g, f)
		},
	}

	cobra.AddTemplateFuncs(cli.TemplateFuncs)
	rootCmd.SetUsageTemplate(cli.UsageTemplate)
	rootCmd.SetHelpTemplate(cli.DrawLogo() + "\n\n{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}\n\n{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.cfgFile, "config", "", "config file (default is $HOME/.config/mergemaster/config.yaml)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.BoolVar(&g.logJSON, "log-json", false, "emit JSON log lines")

	addMergeFlags(rootCmd, f)

	rootCmd.AddCommand(NewWatchCmd(g))
	rootCmd.AddCommand(NewTypesCmd(g))
	rootCmd.AddCommand(NewConfigCmd(g))

	return rootCmd
}

func addMergeFlags(cmd *cobra.Command, f *mergeFlags) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.inputs, "input", "i", nil, "Input folders, separated by commas")
	flags.StringVarP(&f.output, "output", "o", "", "Destination folder")
	flags.StringSliceVarP(&f.types, "type", "t", nil, "File types to merge (e.g. image,video,document), separated by commas")
	flags.StringSliceVarP(&f.extensions, "ext", "x", nil, `Specific file extensions to merge, e.g. .png,.jpg ("." matches files without one)`)
	flags.StringSliceVarP(&f.exclude, "exclude-ext", "e", nil, "File extensions to exclude, e.g. .db,.json")
	flags.StringSliceVarP(&f.skip, "skip", "k", nil, "Folder name keywords to skip, separated by commas")
	flags.StringSliceVarP(&f.ignore, "ignore", "g", nil, "File name globs to skip, e.g. '*.bak'")
	flags.BoolVarP(&f.flatten, "flat", "F", false, "Copy all files into the destination folder without keeping folder structure")
	flags.BoolVarP(&f.dryRun, "dry-run", "n", false, "Show where files would be copied without copying them")
	flags.StringVar(&f.progress, "progress", "", "Progress display: auto, bar, plain or none")
	_ = cmd.MarkFlagRequired("input")
}

// setup loads .env, the config file and configures logging.
func (g *globalFlags) setup(cmd *cobra.Command) error {
	// A missing .env is normal
	_ = godotenv.Load()

	path := g.cfgFile
	if path == "" {
		path = os.Getenv(envConfig)
	}
	var err error
	if path != "" {
		g.cfg, err = config.LoadConfigFile(path)
	} else {
		g.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	level := g.cfg.Log.Level
	if env := os.Getenv(envLogLevel); env != "" {
		level = env
	}
	if cmd.Flags().Changed("log-level") {
		level = g.logLevel
	}
	return log.Configure(cmd.ErrOrStderr(), level, g.logJSON || g.cfg.Log.JSON)
}

// levelExplicit reports whether the user chose a log level anywhere.
func (g *globalFlags) levelExplicit(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("log-level") || os.Getenv(envLogLevel) != "" || g.cfg.Log.Level != "info"
}

// input merges flags over the config file defaults. Only flags the user
// actually set override the file.
func (f *mergeFlags) input(cmd *cobra.Command, cfg *config.Config) config.Input {
	in := cfg.DefaultInput()
	in.Sources = f.inputs
	flags := cmd.Flags()
	if flags.Changed("output") {
		in.Destination = f.output
	}
	if flags.Changed("type") {
		in.Types = f.types
	}
	if flags.Changed("ext") {
		in.Extensions = f.extensions
	}
	if flags.Changed("exclude-ext") {
		in.Exclude = f.exclude
	}
	if flags.Changed("skip") {
		in.SkipKeywords = f.skip
	}
	if flags.Changed("ignore") {
		in.IgnorePatterns = f.ignore
	}
	if flags.Changed("flat") {
		in.Flatten = f.flatten
	}
	in.DryRun = f.dryRun
	return in
}

// progressKind resolves the progress display: flag, environment, config.
func (f *mergeFlags) progressKind(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("progress") {
		return strings.ToLower(f.progress)
	}
	if env := os.Getenv(envProgress); env != "" {
		return strings.ToLower(env)
	}
	return cfg.Progress
}

// newEngine builds the engine and its progress sink for a merge command.
func newEngine(cmd *cobra.Command, g *globalFlags, f *mergeFlags) (*merge.Engine, error) {
	table := g.cfg.CategoryTable()
	opts, err := config.NewOptions(f.input(cmd, g.cfg), table)
	if err != nil {
		return nil, err
	}

	kind := f.progressKind(cmd, g.cfg)
	if err := config.ValidateProgress(kind); err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	sink := progress.New(kind, out)
	if _, ok := sink.(*progress.Bar); ok && !g.levelExplicit(cmd) {
		// Info lines would tear the redrawn bar
		if err := log.Configure(cmd.ErrOrStderr(), "warn", g.logJSON || g.cfg.Log.JSON); err != nil {
			return nil, err
		}
	}

	return merge.New(opts, table, merge.WithProgress(sink))
}

func runMerge(cmd *cobra.Command, g *globalFlags, f *mergeFlags) error {
	engine, err := newEngine(cmd, g, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printStart(out, engine)
	_, err = engine.Run(cmd.Context())
	return err
}

func printStart(out io.Writer, engine *merge.Engine) {
	if engine.IsDryRun() {
		cli.PrintInfo(out, "Dry run: planning the file merge, nothing will be copied...")
		return
	}
	cli.PrintInfo(out, "Starting the file merging process...")
}
