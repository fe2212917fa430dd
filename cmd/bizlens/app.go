package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/kiranshivaraju/bizlens/internal/agent"
	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/cache"
	"github.com/kiranshivaraju/bizlens/internal/config"
	"github.com/kiranshivaraju/bizlens/internal/logger"
	"github.com/kiranshivaraju/bizlens/internal/phase"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries the state shared by all commands.
type app struct {
	out    io.Writer
	errOut io.Writer

	output  string
	verbose bool
	// quiet disables the spinner.
	quiet bool

	loadConfig func() (*config.Config, error)
	newBackend func(cfg *config.Config) backend.Client
	openCache  func(cfg *config.Config) (cache.Cache, error)
	sleep      phase.SleepFunc

	cfg   *config.Config
	cache cache.Cache
	svc   *analysis.Service
	agent *agent.Client
}

func newApp() *app {
	return &app{
		out:        os.Stdout,
		errOut:     os.Stderr,
		output:     outputHuman,
		loadConfig: config.LoadCLI,
		newBackend: func(cfg *config.Config) backend.Client {
			return backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
		},
		openCache: func(cfg *config.Config) (cache.Cache, error) {
			return cache.New(cfg.Cache)
		},
		sleep: phase.Sleep,
	}
}

// setup loads configuration and opens the report cache.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(a.output); err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logCfg := cfg.Log
	if !a.verbose {
		logCfg.Level = "warn"
	}
	logger.Init(logCfg, a.errOut)

	c, err := a.openCache(cfg)
	if err != nil {
		return fmt.Errorf("open report cache: %w", err)
	}
	a.cache = c
	a.svc = analysis.NewService(a.newBackend(cfg), c, analysis.WithSleep(a.sleep))
	return nil
}

// connectAgent dials the agent socket and rebuilds the service around it.
func (a *app) connectAgent(ctx context.Context) error {
	if a.cfg.Agent.URL == "" {
		return fmt.Errorf("AGENT_SOCKET_URL is not set")
	}
	a.agent = agent.New(agent.OptionsFromConfig(a.cfg.Agent))
	if err := a.agent.Connect(ctx); err != nil {
		return err
	}
	a.svc = analysis.NewService(a.newBackend(a.cfg), a.cache, analysis.WithSleep(a.sleep), analysis.WithAgent(a.agent))
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.agent != nil {
		a.agent.Close()
	}
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// spinnerSink shows the phase script as a spinner suffix.
type spinnerSink struct {
	s *spinner.Spinner
}

func (k spinnerSink) Step(index, total int, step phase.Step) {
	k.s.Lock()
	k.s.Suffix = fmt.Sprintf(" [%d/%d] %s", index+1, total, step.Message)
	k.s.Unlock()
}

func (k spinnerSink) Done() {}

// progress starts a spinner and returns its sink plus a stop function.
func (a *app) progress(initial string) (phase.Sink, func()) {
	if a.quiet || a.output != outputHuman {
		return nil, func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Suffix = " " + initial
	s.Start()
	return spinnerSink{s: s}, s.Stop
}

func (a *app) success(msg string) {
	if a.output != outputHuman {
		return
	}
	fmt.Fprintf(a.errOut, "%s %s\n", color.GreenString("✓"), msg)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bizlens",
		Short: "Generate and browse business analysis reports",
		Long: `bizlens submits business analyses (competitor tracking, SWOT, gap analysis,
ICP creation and more) to the report backend, keeps the last ten reports of
each type in a local cache and exports them as PDF.

Examples:
  # Track two competitors
  bizlens analyze competitorTracking --company Acme --industry Retail --field competitors=Globex,Initech

  # Show the report currently loaded for SWOT
  bizlens reports show swot

  # Export it
  bizlens export swot --out acme-swot.pdf`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputHuman, "Output format (human, json, yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newFeaturesCmd(a),
		newAnalyzeCmd(a),
		newReportsCmd(a),
		newExportCmd(a),
		newRenderCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:                "version",
		Short:              "Print the version",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "bizlens %s\n", version)
		},
	}
}
