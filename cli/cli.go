// Package cli implements the cointax commands and the terminal helpers they
// share.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/cointax/config"
	"github.com/robinvdvleuten/cointax/ledger"
	"github.com/robinvdvleuten/cointax/loader"
	"github.com/robinvdvleuten/cointax/logging"
	"github.com/robinvdvleuten/cointax/output"
	"github.com/robinvdvleuten/cointax/parser"
	"github.com/robinvdvleuten/cointax/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	warningSymbol = "!"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD700"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
)

// stdin is read when no input files are given. Tests replace it.
var stdin io.Reader = os.Stdin

const stdinName = "<stdin>"

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printWarningf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		warningStyle.Render(warningSymbol),
		warningStyle.Render(fmt.Sprintf(format, args...)),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(ctx *kong.Context, question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, false
	}
	return width, true
}

// Sources selects the exports a command reads.
type Sources struct {
	Files     []string      `help:"Export files or directories (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Format    parser.Format `help:"CSV layout: auto, coinbase, coinbase-pro-fills or coinbase-pro-account." default:"auto"`
	Recursive bool          `help:"Load every supported file inside directories." short:"r"`
	Address   string        `help:"Algorand address that owns the JSONL histories being loaded."`
}

func (s *Sources) fromStdin() bool {
	return len(s.Files) == 0 || (len(s.Files) == 1 && s.Files[0] == "-")
}

func (s *Sources) loader(settings *config.File) *loader.Loader {
	opts := []loader.Option{
		loader.WithFormat(s.Format),
		loader.WithAlgorandAsset(settings.Algorand.Asset),
	}
	if s.Recursive {
		opts = append(opts, loader.WithRecursive())
	}
	if s.Address != "" {
		opts = append(opts, loader.WithAlgorandAddress(s.Address))
	}
	return loader.New(opts...)
}

// load reads the sources. Stdin content is registered with the renderer so
// parse errors can show the offending row.
func (s *Sources) load(r *run, renderer *ErrorRenderer) (*loader.Result, error) {
	ldr := s.loader(r.settings)

	if s.fromStdin() {
		contents, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		renderer.AddSource(stdinName, contents)
		return ldr.LoadBytes(r.ctx, stdinName, contents)
	}

	return ldr.Load(r.ctx, s.Files...)
}

// run carries what every command needs once the globals are applied.
type run struct {
	ctx      context.Context
	settings *config.File
	ledger   *ledger.Config
	styles   *output.Styles

	stdout io.Writer
	stderr io.Writer

	collector telemetry.Collector
	timer     telemetry.Timer
}

// setup loads the settings, applies the global flags over them and builds the
// run context with logger, telemetry and ledger configuration attached.
func (g *Globals) setup(kctx *kong.Context, name string) (*run, error) {
	settings, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Policy != "" {
		settings.Ledger.Policy = g.Policy
	}
	if g.LogLevel != "" {
		settings.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		settings.Logging.Format = g.LogFormat
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	cfg, err := settings.LedgerConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(settings.Logging.Level, logging.Format(settings.Logging.Format), kctx.Stderr)
	if err != nil {
		return nil, err
	}

	r := &run{
		settings: settings,
		ledger:   cfg,
		styles:   output.NewStyles(kctx.Stdout),
		stdout:   kctx.Stdout,
		stderr:   kctx.Stderr,
	}

	ctx := logging.WithLogger(context.Background(), log)
	ctx = cfg.WithContext(ctx)

	if g.Telemetry {
		r.collector = telemetry.NewTimingCollector()
		ctx = telemetry.WithCollector(ctx, r.collector)

		r.timer = r.collector.Start(name)
		ctx = telemetry.WithRootTimer(ctx, r.timer)
	}

	r.ctx = ctx
	return r, nil
}

// finish prints the timing report when telemetry is enabled.
func (r *run) finish() {
	if r.collector == nil {
		return
	}
	r.timer.End()
	_, _ = fmt.Fprintln(r.stderr)
	r.collector.Report(r.stderr, output.NewStyles(r.stderr))
}

// reconcile loads the sources and replays them through the ledger. Load and
// fatal ledger errors are rendered to stderr and turned into a CommandError.
func (r *run) reconcile(src *Sources) (*ledger.Result, error) {
	renderer := NewErrorRenderer()

	loaded, err := src.load(r, renderer)
	if err != nil {
		_, _ = fmt.Fprintln(r.stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(r.stderr)
		printError(r.stderr, "failed to load exports")
		return nil, NewCommandError(ExitFailure, "failed to load exports")
	}

	result, err := ledger.Reconcile(r.ctx, loaded.Transactions, r.ledger)
	if err != nil {
		_, _ = fmt.Fprintln(r.stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(r.stderr)
		printError(r.stderr, "reconciliation stopped")
		return nil, NewCommandError(ExitFailure, "reconciliation stopped")
	}

	return result, nil
}

// warnShortfalls reports disposals the lots could not account for.
func (r *run) warnShortfalls(result *ledger.Result) {
	if n := len(result.Shortfalls); n > 0 {
		printWarningf(r.stderr, "%d disposal(s) could not be fully accounted for", n)
	}
}

// strictShortfalls lists every shortfall and fails the command.
func (r *run) strictShortfalls(result *ledger.Result) error {
	if len(result.Shortfalls) == 0 {
		return nil
	}
	errs := make([]error, len(result.Shortfalls))
	for i, s := range result.Shortfalls {
		errs[i] = s
	}
	_, _ = fmt.Fprintln(r.stderr, NewErrorRenderer().RenderAll(errs))
	_, _ = fmt.Fprintln(r.stderr)
	printError(r.stderr, fmt.Sprintf("%d disposal(s) could not be fully accounted for", len(errs)))
	return NewCommandError(ExitShortfalls, "unmatched disposals")
}
