package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/rings/internal/api"
	"github.com/mattjoyce/rings/internal/auth"
	"github.com/mattjoyce/rings/internal/config"
	"github.com/mattjoyce/rings/internal/doctor"
	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/lock"
	"github.com/mattjoyce/rings/internal/log"
	"github.com/mattjoyce/rings/internal/metrics"
	"github.com/mattjoyce/rings/internal/render"
	"github.com/mattjoyce/rings/internal/ticker"
	"github.com/mattjoyce/rings/internal/tui/watch"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "frame":
		if hasHelpFlag(args) {
			printFrameHelp()
			return 0
		}
		return runFrame(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "doctor":
		return runConfigCheck(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: rings version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("rings %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalized, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalized
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`rings - day, week, month and year progress rings

Usage:
  rings <noun> <action> [flags]

Core Resources (Nouns):
  system    Tick driver lifecycle and live view
  config    Configuration and integrity
  frame     Render a single frame

System Commands:
  system start      Run the 1 Hz driver and HTTP surface in foreground
  system status     Check config, running driver and API health
  system watch      Live terminal view (local or from a running server)

Frame:
  frame             Print the frame for now or --at RFC3339 (json, svg, text)

Config Commands:
  config check      Validate every ring, block and token setting
  config lock       Write .checksums integrity manifests
  config show       Show the resolved configuration
  config get        Read a single value by dotted path

General:
  --version         Show version information
  version           Show version information
  help              Show this help message

Use 'rings <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			printSystemStatusHelp()
			return 0
		}
		return runSystemStatus(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printSystemWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	case "get":
		if hasHelpFlag(actionArgs) {
			printConfigGetHelp()
			return 0
		}
		return runConfigGet(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: rings system <action>")
	fmt.Fprintln(w, "Actions: start, status, watch")
}

func printConfigNounHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: rings config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show, get")
}

func printSystemStartHelp() {
	fmt.Println("Usage: rings system start [--config PATH]")
	fmt.Println("Run the tick driver and, when api.enabled, the HTTP surface in the foreground.")
}

func printSystemWatchHelp() {
	fmt.Println("Usage: rings system watch [flags]")
	fmt.Println()
	fmt.Println("Live terminal view of the four rings and the active block.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --local          Project frames in-process instead of connecting to a server")
	fmt.Println("  --config PATH    Configuration for --local (default: discovered or built-in)")
	fmt.Println("  --api-url URL    Server URL (default: http://localhost:8080)")
	fmt.Println("  --api-key KEY    Bearer token (or RINGS_API_KEY env var)")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  q, Ctrl+C        Quit")
	fmt.Println("  e                Toggle event stream")
}

func printFrameHelp() {
	fmt.Println("Usage: rings frame [--config PATH] [--at RFC3339] [--format json|svg|text]")
	fmt.Println("Render the frame for one instant and print it.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: rings config check [--config PATH] [--format human|json] [--json] [--strict]")
	fmt.Println("Report every configuration error and warning.")
	fmt.Println("")
	fmt.Println("Exit codes:")
	fmt.Println("  0  Valid")
	fmt.Println("  1  One or more errors")
	fmt.Println("  2  Warnings with --strict")
}

func printConfigLockHelp() {
	fmt.Println("Usage: rings config lock [--config PATH] [-v|--verbose]")
	fmt.Println("Write BLAKE3 .checksums manifests for every file in the include tree.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: rings config show [path] [--config PATH] [--json]")
	fmt.Println("Show the resolved configuration or one node of it.")
}

func printConfigGetHelp() {
	fmt.Println("Usage: rings config get <path> [--config PATH] [--json]")
	fmt.Println("Read a single value from the resolved configuration.")
}

// resolveConfigPath returns configPath or the discovered location.
func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DiscoverConfigDir()
}

// loadConfigOrDefaults loads the given or discovered configuration. When no
// path is given and nothing is discovered, the built-in defaults are used.
func loadConfigOrDefaults(configPath string) (*config.Config, string, error) {
	resolved, err := resolveConfigPath(configPath)
	if err != nil {
		if configPath == "" {
			return config.Defaults(), "", nil
		}
		return nil, "", err
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, source, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	if source == "" {
		source = "built-in defaults"
	}
	logger.Info("rings starting", "version", version, "config", source)

	projector, err := render.NewProjector(cfg)
	if err != nil {
		logger.Error("invalid ring configuration", "error", err)
		return 1
	}

	pidPath := cfg.Service.PIDFile
	if pidPath == "" {
		pidPath = lock.DefaultPath(cfg.Service.Name)
	}
	pidLock, err := lock.Acquire(pidPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another driver may be running)", "path", pidPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidPath)

	hub := events.NewHub(256)
	m := metrics.New()
	driver := ticker.New(projector, hub, nil, cfg.Service.TickInterval, m, log.WithComponent("ticker"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)

	if err := driver.Start(ctx); err != nil {
		logger.Error("failed to start tick driver", "error", err)
		return 1
	}
	defer driver.Stop()

	if cfg.API.Enabled {
		tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
		for _, t := range cfg.API.Auth.Tokens {
			tokens = append(tokens, auth.TokenConfig{
				Token:  t.Token,
				Scopes: t.Scopes,
			})
		}
		apiConfig := api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
			Tokens: tokens,
		}
		apiServer := api.New(apiConfig, driver, projector, hub, m, log.Get())
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("rings running (press Ctrl+C to stop)", "run_id", driver.RunID())

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("rings stopped")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	local := fs.Bool("local", false, "Project frames in-process")
	configPath := fs.String("config", "", "Path to configuration file or directory (with --local)")
	apiURL := fs.String("api-url", "http://localhost:8080", "Server URL")
	apiKey := fs.String("api-key", os.Getenv("RINGS_API_KEY"), "API bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	var m *watch.Model
	if *local {
		cfg, _, err := loadConfigOrDefaults(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		projector, err := render.NewProjector(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid ring configuration: %v\n", err)
			return 1
		}
		m = watch.NewLocal(projector, nil)
	} else {
		m = watch.NewRemote(*apiURL, *apiKey)
	}

	p := tea.NewProgram(*m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

func runFrame(args []string) int {
	fs := flag.NewFlagSet("frame", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	atFlag := fs.String("at", "", "Instant to render (RFC3339, default now)")
	format := fs.String("format", "json", "Output format (json, svg, text)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	now := time.Now()
	if *atFlag != "" {
		t, err := time.Parse(time.RFC3339, *atFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --at: %v\n", err)
			return 1
		}
		now = t
	}

	cfg, _, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	projector, err := render.NewProjector(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid ring configuration: %v\n", err)
		return 1
	}

	frame := projector.Tick(now)
	switch *format {
	case "json":
		data, err := json.MarshalIndent(frame, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	case "svg":
		err = render.WriteSVG(os.Stdout, frame)
	case "text":
		err = render.WriteText(os.Stdout, frame)
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s (want json, svg or text)\n", *format)
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		return 1
	}
	return 0
}

func runConfigCheck(args []string) int {
	var configPath, format string
	var strict, jsonOut bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.StringVar(&format, "format", "human", "Output format (human, json)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if jsonOut {
		format = "json"
	}

	resolved, err := resolveConfigPath(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	// The doctor reports every problem, so skip the loader's fail-fast checks.
	cfg, err := config.LoadUnchecked(resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, verboseShort bool

	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	resolved, err := resolveConfigPath(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	reports, err := config.LockConfig(resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	for _, report := range reports {
		if verbose || verboseShort {
			fmt.Printf("Processing directory: %s\n", report.ConfigDir)
			for _, f := range report.Files {
				fmt.Printf("  HASH %s %s\n", f.Hash, f.Filename)
			}
		}
		fmt.Printf("WROTE %s (%d file(s))\n", report.ChecksumPath, len(report.Files))
	}
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, _, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	// An empty path selects the whole document.
	result, err := cfg.GetPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return printValue(result, *jsonOut)
}

func runConfigGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: rings config get <path> [--json]")
		return 1
	}

	cfg, _, err := loadConfigOrDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	val, err := cfg.GetPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOut {
		return printValue(val, true)
	}
	fmt.Printf("%v\n", val)
	return 0
}

func printValue(v any, jsonOut bool) int {
	var (
		data []byte
		err  error
	)
	if jsonOut {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Format error: %v\n", err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}
