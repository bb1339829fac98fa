package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
	"go.uber.org/zap"

	"smtdump/internal/config"
	"smtdump/internal/drivers"
	"smtdump/internal/logging"
	"smtdump/internal/model"
	"smtdump/internal/scene"
	"smtdump/internal/sink"
	"smtdump/internal/tui"
	"smtdump/internal/web"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      model.RepoOwner,
		Repository: model.RepoName,
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Printf("👉 Download it from https://github.com/%s/%s/releases\n", model.RepoOwner, model.RepoName)
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

// app is everything a mode needs once the host snapshot is loaded.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	host     *scene.Scene
	hostPath string
	runner   *drivers.Runner
	gate     *drivers.Gate
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smtdump [options]\n\n")
		fmt.Fprintf(os.Stderr, "smtdump inspects a snapshot of a live object graph and writes bounded,\n")
		fmt.Fprintf(os.Stderr, "readable reports about unlock flags, achievements, limits and UI trees.\n")
		fmt.Fprintf(os.Stderr, "Every report is logged in chunks and appended to <diagnostics_dir>/<tool_tag>_dump.txt.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nReports: %s\n", strings.Join(drivers.Names(), ", "))
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  smtdump -H scene.yaml               # Start the keybind console\n")
		fmt.Fprintf(os.Stderr, "  smtdump -H scene.yaml -r npc        # Print one report to stdout\n")
		fmt.Fprintf(os.Stderr, "  smtdump -H scene.yaml -r all -o r.txt\n")
		fmt.Fprintf(os.Stderr, "  smtdump -H scene.yaml -r all --json # Reports as JSON\n")
		fmt.Fprintf(os.Stderr, "  smtdump -H scene.yaml -w --watch    # Serve the API, reloading on change\n")
	}

	hostFlag := pflag.StringP("host", "H", "", "Host snapshot (YAML) to inspect")
	configFlag := pflag.StringP("config", "c", "", "Config file (default "+config.DefaultPath()+")")
	reportFlag := pflag.StringP("report", "r", "", "Run one report by name, or 'all', and print it")
	outputFlag := pflag.StringP("output", "o", "", "Save printed reports to the specified file (combined with --report)")
	listFlag := pflag.BoolP("list", "l", false, "List the available reports")
	jsonFlag := pflag.BoolP("json", "j", false, "Print reports as JSON")
	webFlag := pflag.BoolP("web", "w", false, "Serve the report API over HTTP")
	addrFlag := pflag.String("addr", "", "Web listen address (default from config, localhost:8080)")
	watchFlag := pflag.Bool("watch", false, "Reload the host snapshot when it changes on disk")
	extrasFlag := pflag.Bool("check-extras", false, "Print whether the employee extra upgrades are unlocked")
	initConfigFlag := pflag.Bool("init-config", false, "Write the default config file and exit")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Enable debug logging")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("smtdump version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	if *listFlag {
		runListMode()
		return
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if *initConfigFlag {
		if err := config.DefaultConfig().Save(configPath); err != nil {
			fatal(err)
		}
		fmt.Printf("Config written to %s\n", configPath)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(fmt.Errorf("invalid config %s: %w", configPath, err))
	}

	tuiMode := !*webFlag && *reportFlag == "" && !*jsonFlag && !*extrasFlag
	logCfg := cfg.Logging
	if tuiMode && logCfg.File == "" {
		// The console owns the terminal.
		logCfg.File = filepath.Join(cfg.DiagnosticsDir, "smtdump.log")
	}
	logger, err := logging.New(logCfg, *verboseFlag)
	if err != nil {
		fatal(err)
	}

	a, err := newApp(cfg, logger, *hostFlag)
	if err == nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		if *watchFlag {
			a.watch(ctx)
		}

		switch {
		case *extrasFlag:
			fmt.Printf("employee extras unlocked: %t\n", a.gate.EmployeeExtrasUnlocked(a.host))
		case *webFlag:
			err = runWebMode(ctx, a, *addrFlag)
		case *reportFlag != "" || *jsonFlag:
			name := *reportFlag
			if name == "" {
				name = "all"
			}
			err = runReportMode(ctx, a, name, *outputFlag, *jsonFlag)
		default:
			err = runTuiMode(a)
		}
		stop()
	}
	if code := finish(logger, err); code != 0 {
		os.Exit(code)
	}
}

// finish flushes the logger and reports err, returning the process exit
// code.
func finish(logger *zap.Logger, err error) int {
	if err != nil {
		logger.Error("smtdump failed", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// fatal is for errors raised before the logger exists.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newApp(cfg *config.Config, logger *zap.Logger, hostPath string) (*app, error) {
	if hostPath == "" {
		return nil, errors.New("no host snapshot given (use --host <file.yaml>)")
	}
	host, err := scene.Load(hostPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("host snapshot loaded", zap.String("path", hostPath), zap.Int("nodes", host.Len()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		host:     host,
		hostPath: hostPath,
		runner: &drivers.Runner{
			Host: host,
			Sink: &sink.Sink{
				Logger:    logger,
				Dir:       cfg.DiagnosticsDir,
				Tag:       cfg.ToolTag,
				ChunkSize: cfg.ChunkSize,
			},
			Config: cfg,
			Logger: logger,
		},
		gate: drivers.NewGate(cfg, logger),
	}, nil
}

// reload reads the snapshot again and swaps it in.
func (a *app) reload() error {
	next, err := scene.Load(a.hostPath)
	if err != nil {
		return err
	}
	a.replace(next)
	return nil
}

func (a *app) replace(next *scene.Scene) {
	a.host.Replace(next)
	a.gate.Invalidate()
	a.logger.Info("host snapshot replaced", zap.String("path", a.hostPath), zap.Int("nodes", a.host.Len()))
}

func (a *app) watch(ctx context.Context) {
	go func() {
		if err := scene.Watch(ctx, a.hostPath, a.logger, a.replace); err != nil {
			a.logger.Warn("snapshot watcher stopped", zap.Error(err))
		}
	}()
}

func runListMode() {
	keys := config.DefaultConfig().Keys
	for _, d := range drivers.All() {
		fmt.Printf("  %s  %-13s %s\n", d.Key(keys), d.Name, d.Title)
	}
}

func runReportMode(ctx context.Context, a *app, name, outputFile string, asJSON bool) error {
	var (
		outs []drivers.Output
		err  error
	)
	if name == "all" {
		outs, err = a.runner.RunAll(ctx)
	} else {
		var out drivers.Output
		out, err = a.runner.Run(name)
		outs = []drivers.Output{out}
	}
	if err != nil {
		return err
	}

	var b strings.Builder
	if asJSON {
		enc := json.NewEncoder(&b)
		enc.SetIndent("", "  ")
		enc.Encode(outs)
	} else {
		for _, o := range outs {
			b.WriteString(o.Text)
			b.WriteString("\n")
		}
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(b.String()), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputFile, err)
		}
		fmt.Printf("Report saved to %s\n", outputFile)
	} else {
		fmt.Print(b.String())
	}

	for _, o := range outs {
		if o.DumpErr != nil {
			fmt.Fprintf(os.Stderr, "%s %s: dump file not written: %v\n", model.IconNoDump, o.Name, o.DumpErr)
		}
	}
	return nil
}

func runWebMode(ctx context.Context, a *app, addr string) error {
	if addr == "" {
		addr = a.cfg.Web.Addr
	}
	s := &web.Server{
		Runner: a.runner,
		Gate:   a.gate,
		Addr:   addr,
		Logger: a.logger,
	}
	fmt.Printf("Starting smtdump web server at http://%s/api/reports\n", addr)
	return s.ListenAndServe(ctx)
}

func runTuiMode(a *app) error {
	m := tui.InitialModel(a.runner, a.gate, a.reload)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
