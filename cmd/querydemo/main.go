package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/querydemo/internal/config"
	"github.com/smileynet/querydemo/internal/dashboard"
	"github.com/smileynet/querydemo/internal/graphql"
	"github.com/smileynet/querydemo/internal/query"
	"github.com/smileynet/querydemo/internal/telemetry"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for querydemo.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Browse  BrowseCmd        `cmd:"" default:"withargs" help:"Browse posts in an interactive TUI."`
	Walk    WalkCmd          `cmd:"" help:"Visit posts headlessly and print what the cache does."`
}

// QueryFlags are the overrides shared by every command. Unset flags keep
// the configured values.
type QueryFlags struct {
	Endpoint  string         `help:"GraphQL endpoint URL."`
	StaleTime *time.Duration `help:"How long fetched data counts as fresh."`
	Retries   *int           `help:"Fetch attempts before a query fails."`
}

// apply overlays the flags onto cfg.
func (f QueryFlags) apply(cfg *config.Config) {
	if f.Endpoint != "" {
		cfg.API.Endpoint = f.Endpoint
	}
	if f.StaleTime != nil {
		cfg.Query.StaleTime = *f.StaleTime
	}
	if f.Retries != nil {
		cfg.Query.Retry.MaxAttempts = *f.Retries
	}
}

// loadConfig loads layered config from user and project paths with env
// overrides, then applies flag overrides and validates the result.
func loadConfig(flags QueryFlags) (*config.Config, error) {
	cfg, err := config.LoadLayered(config.DefaultPaths()...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wiring shared by browse and walk.
type app struct {
	client   *query.Client
	source   dashboard.PostSource
	shutdown telemetry.ShutdownFunc
}

// newApp builds the query client over the GraphQL API.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		return nil, err
	}
	api := graphql.NewClient(cfg.API.Endpoint, graphql.WithTimeout(cfg.API.Timeout))
	client := query.NewClient(ctx,
		query.WithConfig(cfg.QueryConfig()),
		query.WithLogger(logger),
	)
	return &app{
		client:   client,
		source:   &postSource{api: api},
		shutdown: shutdown,
	}, nil
}

// close flushes telemetry, bounded so exit never hangs on the exporter.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.shutdown(ctx)
}

// --- Browse command ---

// BrowseCmd opens the interactive posts browser.
type BrowseCmd struct {
	QueryFlags
	LogFile string `help:"Write diagnostic logs to this file."`
}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds real dependencies and launches the browser.
func (b *BrowseCmd) Run() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("browse: requires a terminal (TTY); try walk")
	}

	cfg, err := loadConfig(b.QueryFlags)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	if b.LogFile != "" {
		cfg.Log.File = b.LogFile
	}

	// Stdout belongs to the UI, so logs go to a file.
	logFile, err := tea.LogToFile(cfg.Log.File, "querydemo")
	if err != nil {
		return fmt.Errorf("browse: log file: %w", err)
	}
	defer logFile.Close()
	logger := log.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	defer a.close()

	bridge := dashboard.NewBridge()
	ctrl := dashboard.NewController(a.client, a.source, bridge)
	defer ctrl.Close()

	m := dashboard.NewModel(ctrl,
		dashboard.WithUpdates(bridge.Updates()),
		dashboard.WithContext(ctx),
	)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	return b.run(true, prog)
}

// run executes the tea program, enabling testable wiring.
func (b *BrowseCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("browse: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// --- Walk command ---

// WalkCmd drives the list/detail flow without a terminal UI.
type WalkCmd struct {
	QueryFlags
	Posts    []int         `help:"Post ids to open, in order." default:"1,2,1"`
	Prefetch bool          `help:"Prefetch every listed post before the walk."`
	Wait     time.Duration `help:"How long to wait for each query to settle." default:"30s"`
	Verbose  bool          `help:"Log cache activity to stderr." short:"v"`
}

// Run executes the walk command.
func (w *WalkCmd) Run() error {
	cfg, err := loadConfig(w.QueryFlags)
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}

	logger := log.New(io.Discard, "", 0)
	if w.Verbose {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}
	defer a.close()

	return w.run(ctx, os.Stdout, a.client, a.source)
}

// --- Adapters ---

// postSource adapts the GraphQL posts API to dashboard.PostSource.
type postSource struct {
	api *graphql.Client
}

func (s *postSource) Posts(ctx context.Context) ([]dashboard.PostSummary, error) {
	posts, err := s.api.Posts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dashboard.PostSummary, len(posts))
	for i, p := range posts {
		out[i] = dashboard.PostSummary{ID: dashboard.PostID(p.ID), Title: p.Title}
	}
	return out, nil
}

func (s *postSource) Post(ctx context.Context, id dashboard.PostID) (dashboard.Post, error) {
	p, err := s.api.Post(ctx, int(id))
	if err != nil {
		return dashboard.Post{}, err
	}
	return dashboard.Post{ID: dashboard.PostID(p.ID), Title: p.Title, Body: p.Body}, nil
}

const (
	exitSuccess = 0
	exitFetch   = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var (
		se *graphql.StatusError
		re *graphql.ResponseError
	)
	if errors.As(err, &se) || errors.As(err, &re) ||
		errors.Is(err, graphql.ErrPostNotFound) || errors.Is(err, graphql.ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, query.ErrFetchPanicked) ||
		errors.Is(err, errWalkTimeout) {
		return exitFetch
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("querydemo"),
		kong.Description("Browse GraphQL posts through a stale-while-revalidate query cache."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
