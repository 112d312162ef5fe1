// ctv keeps multi-language label files in sync and generates the label
// enumeration used by application code.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/minios-linux/ctv/cache"
	"github.com/minios-linux/ctv/config"
	"github.com/minios-linux/ctv/i18n"
	"github.com/minios-linux/ctv/labelops"
	"github.com/minios-linux/ctv/labelsync"
	"github.com/minios-linux/ctv/langmeta"
	"github.com/minios-linux/ctv/report"
	"github.com/minios-linux/ctv/settings"
	"github.com/minios-linux/ctv/store"
	"github.com/minios-linux/ctv/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// maxTranslationLen bounds texts entered with label add and replace.
const maxTranslationLen = 1000

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
	noColor bool
	uiLang  string

	logger = slog.Default()
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func newLogger(w io.Writer, debug, color bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !color,
	}))
}

// colorEnabled reports whether w is a terminal that accepts colors. NO_COLOR
// and --no-color disable them.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ctv",
		Short: "Multi-language label synchronization",
		Long: `ctv keeps the label files of every configured language in sync.

Labels live in one JSON document per language ({basePath}/{code}.json).
Missing labels are filled from the first language that has them, machine
translated on request, and a label enumeration is generated for
application code.

Commands:
  init        Create a default configuration file
  label       Add, delete, replace, get and sync labels
  export      Export labels
  cache       Show or clear the translation cache
  translate   Translate a text with one of the engines
  auth        Manage engine API keys

Translation engines:
  bing     Bing translator (no key)
  terra    TerraPrint translate API
  openai   OpenAI-compatible chat completions`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lang := i18n.Init(uiLang)
			logger = newLogger(cmd.ErrOrStderr(), verbose, colorEnabled(cmd.ErrOrStderr()))
			logger.Debug("message language", "lang", lang)
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colors (NO_COLOR is honoured too)")
	root.PersistentFlags().StringVar(&uiLang, "lang", "", "Message language (default: $CTV_LANG, then the locale)")

	root.AddCommand(
		newInitCmd(),
		newLabelCmd(),
		newExportCmd(),
		newCacheCmd(),
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error(i18n.T("Command failed"), tint.Err(err))
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ctv version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var (
		force  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Create a default configuration file in the project root.

Examples:
  ctv init
  ctv init --force
  ctv init --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := configFileName(format)
			if err != nil {
				return err
			}
			path, err := config.Init(rootDir, name, force)
			if errors.Is(err, config.ErrExists) {
				logger.Warn(i18n.T("The settings file already exists"), "path", path)
				return nil
			}
			if err != nil {
				return err
			}
			logger.Info(i18n.T("Successfully!"), "path", path)
			logger.Info(fmt.Sprintf(i18n.T("Open the file %q and set the appropriate parameters."), name))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().StringVar(&format, "format", "json", "File format: json, yaml or toml")

	return cmd
}

func configFileName(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return config.FileName, nil
	case "yaml", "yml":
		return ".ctv.yaml", nil
	case "toml":
		return ".ctv.toml", nil
	default:
		return "", fmt.Errorf("unknown configuration format %q (want json, yaml or toml)", format)
	}
}

// ---------------------------------------------------------------------------
// label
// ---------------------------------------------------------------------------

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage labels",
	}

	cmd.AddCommand(
		newLabelAddCmd(),
		newLabelDeleteCmd(),
		newLabelReplaceCmd(),
		newLabelGetCmd(),
		newLabelSyncCmd(),
	)

	return cmd
}

func newLabelAddCmd() *cobra.Command {
	var (
		fromLang        string
		text            string
		noAutoTranslate bool
		silent          bool
	)

	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a new label",
		Long: `Add a label to one language, then sync every other language.

Examples:
  ctv label add hello.world -f en -t "Hello World!"
  ctv label add hello.world -t "Hello World!" --no-auto-translate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			label := args[0]
			if err := cfg.CheckLabel(label); err != nil {
				return err
			}
			code, err := cfg.LangCode(fromLang)
			if err != nil {
				return err
			}
			if err := checkTranslation(text); err != nil {
				return err
			}

			st := newStore(cfg)
			rec, err := labelops.Add(st, code, label, text)
			if err != nil {
				return err
			}
			if !silent {
				logger.Info(i18n.T("Label added"), "label", label, "lang", code, "text", text, "path", rec.Path)
			}

			if err := runSync(cmd, cfg, syncArgs{
				autoTranslate: !noAutoTranslate,
				noReport:      true,
				silent:        true,
			}); err != nil {
				return err
			}
			logger.Info(i18n.T("Done!"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromLang, "from", "f", "", "Language code of the text (default: langCodeDefault)")
	cmd.Flags().StringVarP(&text, "translation", "t", "", "Text of the label (required)")
	cmd.Flags().BoolVar(&noAutoTranslate, "no-auto-translate", false, "Copy the text to other languages instead of translating it")
	cmd.Flags().BoolVar(&silent, "silent", false, "Print nothing but errors")
	_ = cmd.MarkFlagRequired("translation")

	return cmd
}

func newLabelDeleteCmd() *cobra.Command {
	var noReport bool

	cmd := &cobra.Command{
		Use:   "delete <label>",
		Short: "Delete the specified label",
		Long: `Delete a label, or every label under it, from all languages.

The report marks an exact match with "*" and a deleted subtree with "-".

Examples:
  ctv label delete hello
  ctv label delete hello.world`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			rows, records, err := labelops.Delete(newStore(cfg), cfg.Languages, args[0])
			if err != nil {
				return err
			}
			if len(records) > 0 {
				keys := labelsync.SortedKeys(records[0].Flat)
				if err := labelsync.WriteEnum(enumOptions(cfg), keys, cfg.Languages); err != nil {
					return err
				}
			}

			if !noReport {
				fmt.Fprintln(cmd.OutOrStdout(), report.Delete(rows, styles(cmd)))
			}
			removed := 0
			for _, row := range rows {
				switch row.Status {
				case labelops.StatusExact:
					removed++
				case labelops.StatusSubtree:
					removed += len(row.Labels)
				}
			}
			logger.Info(fmt.Sprintf(i18n.N("Removed %d label", "Removed %d labels", removed), removed))
			logger.Info(i18n.T("Done!"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&noReport, "no-report", "r", false, "Do not print the report table")

	return cmd
}

func newLabelReplaceCmd() *cobra.Command {
	var (
		lang string
		text string
	)

	cmd := &cobra.Command{
		Use:   "replace <label>",
		Short: "Replace the label",
		Long: `Replace the text of an existing label in one language.

Examples:
  ctv label replace hello.world -t "Hello world!!!"
  ctv label replace hello.world -t "Hello world!!!" -f en`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			label := args[0]
			if err := cfg.CheckLabel(label); err != nil {
				return err
			}
			code, err := cfg.LangCode(lang)
			if err != nil {
				return err
			}
			if err := checkTranslation(text); err != nil {
				return err
			}

			if _, err := labelops.Replace(newStore(cfg), code, label, text); err != nil {
				if errors.Is(err, labelops.ErrLabelNotFound) {
					return errors.New(i18n.T("Label not found."))
				}
				return err
			}
			logger.Info(i18n.T("Label changed successfully."), "label", label, "lang", code)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "from", "f", "", "Language code (default: langCodeDefault)")
	cmd.Flags().StringVarP(&text, "translation", "t", "", "New text of the label (required)")
	_ = cmd.MarkFlagRequired("translation")

	return cmd
}

// labelRow is the JSON form of a found label.
type labelRow struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Trans any    `json:"trans"`
}

func newLabelGetCmd() *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "get [label]",
		Short: "Display the translations of a label",
		Long: `Display the translations of a label, of every label under it, or of
every label matching a pattern where "*" stands for one key.

Examples:
  ctv label get
  ctv label get hello.world
  ctv label get hello.world -f en
  ctv label get 'menu.*.title' --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			label := ""
			if len(args) > 0 {
				label = args[0]
			}
			codes := cfg.Languages
			if lang != "" {
				code, err := cfg.LangCode(lang)
				if err != nil {
					return err
				}
				codes = []string{code}
			}

			records, err := newStore(cfg).ReadAll(codes)
			if err != nil {
				return err
			}
			matches, err := labelops.Find(records, label)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				rows := make([]labelRow, 0, len(matches))
				for _, m := range matches {
					var trans any = m.Value.Text
					if m.Value.IsList() {
						trans = m.Value.List
					}
					rows = append(rows, labelRow{Code: m.Code, Label: m.Label, Trans: trans})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(rows)
			}
			fmt.Fprintln(out, report.Matches(matches, styles(cmd)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "from", "f", "", "Only look in this language")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func newLabelSyncCmd() *cobra.Command {
	var a syncArgs

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize labels between languages",
		Long: `Fill the labels missing from each language and regenerate the label
enumeration.

A missing label is taken from the first configured language that has it.
With --auto-translate strings are machine translated through the
translation cache; otherwise they are copied as-is. Lists are always
copied.

Examples:
  ctv label sync
  ctv label sync --auto-translate
  ctv label sync --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := runSync(cmd, cfg, a); err != nil {
				return err
			}
			if !a.silent {
				logger.Info(i18n.T("Done!"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&a.autoTranslate, "auto-translate", false, "Machine translate missing strings")
	cmd.Flags().BoolVarP(&a.noReport, "no-report", "r", false, "Do not print the report table")
	cmd.Flags().BoolVar(&a.silent, "silent", false, "Print nothing but errors")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would change without writing files")

	return cmd
}

type syncArgs struct {
	autoTranslate bool
	noReport      bool
	silent        bool
	dryRun        bool
}

func runSync(cmd *cobra.Command, cfg *config.Config, a syncArgs) error {
	c, err := newCache(cfg)
	if err != nil {
		return err
	}

	res, err := labelsync.Run(cmd.Context(), labelsync.Options{
		Languages:     cfg.Languages,
		Store:         newStore(cfg),
		Cache:         c,
		NewProvider:   func() (translate.Provider, error) { return newProvider(cfg, "", "") },
		AutoTranslate: a.autoTranslate,
		DryRun:        a.dryRun,
		Enum:          enumOptions(cfg),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("sync stopped after %q: %w", res.State, err)
	}

	if !a.noReport && len(res.Rows) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), report.Sync(res.Rows, cfg.Languages, styles(cmd)))
	}
	if !a.silent {
		if a.dryRun {
			logger.Info(i18n.T("Dry run, no files written"), "languages", strings.Join(res.Changed, ","))
		} else if len(res.Written) == 0 {
			logger.Info(i18n.T("All languages are up to date"))
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export labels",
	}

	cmd.AddCommand(newExportCSVCmd())

	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var (
		include   string
		output    string
		delimiter string
		eol       string
		withBOM   bool
	)

	cmd := &cobra.Command{
		Use:   "csv [langCode]",
		Short: "Export labels to a CSV file",
		Long: `Export labels to a CSV file with the columns label, <code> and
<code>_new for each exported language. List items are joined with "🏁".

Examples:
  ctv export csv
  ctv export csv en --include uk -o dist/en-uk.csv
  ctv export csv -d ";" --eol crlf --with-bom`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			codes := cfg.Languages
			if len(args) > 0 {
				code, err := cfg.LangCode(args[0])
				if err != nil {
					return err
				}
				codes = []string{code}
				if include != "" && include != code {
					if _, err := cfg.LangCode(include); err == nil {
						codes = append(codes, include)
					} else {
						logger.Warn(i18n.T("Ignoring unknown language"), "include", include)
					}
				}
			}

			delim, err := report.ParseDelimiter(delimiter)
			if err != nil {
				return err
			}
			crlf, err := report.ParseEOL(eol)
			if err != nil {
				return err
			}

			records, err := newStore(cfg).ReadAll(codes)
			if err != nil {
				return err
			}

			path := resolvePath(output)
			var buf strings.Builder
			if err := report.WriteCSV(&buf, records, report.CSVOptions{Delimiter: delim, CRLF: crlf, BOM: withBOM}); err != nil {
				return err
			}
			if err := store.WriteFile(path, []byte(buf.String())); err != nil {
				return err
			}
			logger.Info(i18n.T("File saved"), "path", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&include, "include", "i", "", "Include a second language code")
	cmd.Flags().StringVarP(&output, "output-file", "o", "dist/output.csv", "Path to save the file")
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", ",", "Column delimiter")
	cmd.Flags().StringVar(&eol, "eol", "lf", "End of line: lf or crlf")
	cmd.Flags().BoolVar(&withBOM, "with-bom", false, "Prefix the file with a UTF-8 BOM")

	return cmd
}

// ---------------------------------------------------------------------------
// cache
// ---------------------------------------------------------------------------

func newCacheCmd() *cobra.Command {
	var clearCache bool

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Translation cache management",
		Long: `Show the translation cache path and size, or clear it.

The cache lives in $XDG_CACHE_HOME/ctv (default ~/.cache/ctv) unless
cacheDir is configured. It is only persisted when engineUseCache is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(rootDir)
			if err != nil {
				return err
			}
			c, err := newCache(cfg)
			if err != nil {
				return err
			}

			_, statErr := os.Stat(c.Path())
			if clearCache || errors.Is(statErr, os.ErrNotExist) {
				if err := c.Clear(); err != nil {
					return err
				}
				if clearCache {
					logger.Info(i18n.T("Cache cleared successfully."))
				}
			}

			size, err := c.Size()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", i18n.T("Cache path:"), c.Path())
			fmt.Fprintf(out, "%s %dKB\n", i18n.T("Size:"), int64(math.Round(float64(size)/1024)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&clearCache, "clear", "c", false, "Clear the cache")

	return cmd
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

// translateResult is the JSON form of a translation.
type translateResult struct {
	Engine      string `json:"engine"`
	From        string `json:"from"`
	To          string `json:"to"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

func newTranslateCmd() *cobra.Command {
	var (
		engine   string
		from     string
		to       string
		apiKey   string
		asJSON   bool
		useCache bool
	)

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate a text",
		Long: `Translate a text with one of the engines.

The engine defaults to the configured one. Without --from the source
language is detected when the engine supports it.

Examples:
  ctv translate "Hello world" -t uk
  ctv translate "Hello world" --engine terra -f en -t de
  ctv translate "Hello world" --engine openai -t fr --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(rootDir)
			if err != nil {
				return err
			}
			if to == "" && cfg.Terra != nil {
				to = cfg.Terra.ToLangCode
			}
			if to == "" {
				return errors.New(i18n.T("No target language given (use --to)"))
			}

			prov, err := newProvider(cfg, engine, apiKey)
			if err != nil {
				return err
			}

			var translated string
			if useCache {
				c, err := newCache(cfg)
				if err != nil {
					return err
				}
				translated, err = c.GetOrTranslate(cmd.Context(), args[0], from, to, prov)
				if err != nil {
					return err
				}
			} else {
				translated, err = prov.TranslateText(cmd.Context(), args[0], from, to)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(translateResult{
					Engine: prov.Name(), From: from, To: to,
					Text: args[0], Translation: translated,
				})
			}
			logger.Debug("translated", "engine", prov.Name(), "to", langmeta.Label(to))
			fmt.Fprintln(out, translated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&engine, "engine", "e", "", "Engine: bing, terra, openai (default: configured engine)")
	cmd.Flags().StringVarP(&from, "from", "f", "", "Source language code (default: detect)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Target language code")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for terra or openai")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Use the translation cache")
	_ = cmd.RegisterFlagCompletionFunc("engine", completeEngines)

	return cmd
}

func completeEngines(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(translate.Engines()))
	for _, e := range translate.Engines() {
		out = append(out, e.String())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

// keyedEngines are the engines that take an API key.
var keyedEngines = []struct {
	id   string
	name string
}{
	{"terra", "TerraPrint"},
	{"openai", "OpenAI-compatible"},
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage engine API keys",
		Long: `Manage the API keys of the translation engines.

Keys are stored in $XDG_DATA_HOME/ctv/auth.json (0600). A key given with
--api-key, in the configuration or in TERRA_API_KEY / OPENAI_API_KEY takes
precedence over the stored one.

Examples:
  ctv auth set terra --key KEY
  ctv auth set openai --key KEY --base-url http://localhost:11434/v1
  ctv auth remove openai
  ctv auth list`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var (
		key     string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:       "set <engine>",
		Short:     "Store an API key",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"terra", "openai"},
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := args[0]
			if settings.EnvVarForEngine(engine) == "" {
				return fmt.Errorf("%w: %q takes no API key", translate.ErrUnsupportedEngine, engine)
			}
			if key == "" {
				return errors.New(i18n.T("No key given (use --key)"))
			}
			if err := settings.SetAPIKey(engine, key, baseURL); err != nil {
				return err
			}
			logger.Info(i18n.T("API key saved"), "engine", engine, "key", settings.MaskKey(key))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom API base URL (openai)")

	return cmd
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [engine]",
		Short: "Remove stored keys (default: all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logger.Info(i18n.T("All stored credentials removed"))
				return nil
			}
			if err := settings.Remove(args[0]); err != nil {
				return err
			}
			logger.Info(i18n.T("Credentials removed"), "engine", args[0])
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored keys",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", i18n.T("Credentials file:"), settings.FilePath())
			for _, e := range keyedEngines {
				status := i18n.T("not configured")
				if key := settings.GetAPIKey(e.id); key != "" {
					status = fmt.Sprintf("%s (key: %s)", i18n.T("configured"), settings.MaskKey(key))
				}
				if u := settings.GetBaseURL(e.id); u != "" {
					status += " endpoint: " + u
				}
				if env := settings.EnvVarForEngine(e.id); os.Getenv(env) != "" {
					status += fmt.Sprintf(" [%s set]", env)
				}
				fmt.Fprintf(out, "  %-8s %-18s %s\n", e.id, e.name, status)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", cfg.Path, "languages", strings.Join(cfg.Languages, ","))
	return cfg, nil
}

// resolvePath makes a relative path relative to the project root.
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func newStore(cfg *config.Config) *store.Store {
	st := store.New(resolvePath(cfg.BasePath), logger)
	st.StrictKeys = cfg.StrictKeys
	return st
}

func newCache(cfg *config.Config) (*cache.Cache, error) {
	dir, err := settings.CacheDir(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Options{
		Dir:        dir,
		Persist:    cfg.EngineUseCache,
		LegacyKeys: cfg.CacheLegacyKeys,
		Logger:     logger,
	}), nil
}

func enumOptions(cfg *config.Config) *labelsync.EnumOptions {
	return &labelsync.EnumOptions{
		Path:    resolvePath(cfg.BasePathEnum),
		Options: cfg.EnumOptions(),
	}
}

// newProvider builds the translation engine: name when given, otherwise the
// configured one. API keys are resolved through the credential store.
func newProvider(cfg *config.Config, name, apiKey string) (translate.Provider, error) {
	if name == "" {
		name = cfg.Engine
	}
	engine, err := translate.ParseEngine(name)
	if err != nil {
		return nil, err
	}

	tc := cfg.TranslateConfig()
	tc.Logger = logger
	switch engine {
	case translate.EngineTerra:
		tc.Terra.APIKey = settings.ResolveAPIKey("terra", firstNonEmpty(apiKey, tc.Terra.APIKey))
	case translate.EngineOpenAI:
		tc.OpenAI.APIKey = settings.ResolveAPIKey("openai", firstNonEmpty(apiKey, tc.OpenAI.APIKey))
		if tc.OpenAI.BaseURL == "" {
			tc.OpenAI.BaseURL = settings.GetBaseURL("openai")
		}
	}
	return translate.New(engine, tc)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func checkTranslation(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New(i18n.T("The translation text is empty"))
	}
	if len([]rune(text)) > maxTranslationLen {
		return fmt.Errorf(i18n.T("The maximum number of characters exceeds %d characters"), maxTranslationLen)
	}
	return nil
}

func styles(cmd *cobra.Command) report.Styles {
	return report.NewStyles(colorEnabled(cmd.OutOrStdout()))
}
