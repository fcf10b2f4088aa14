package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elpatron68/side-launcher/internal/config"
	"github.com/elpatron68/side-launcher/internal/dispatch"
	"github.com/elpatron68/side-launcher/internal/launcher"
	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/settings"
	"github.com/elpatron68/side-launcher/internal/telemetry"
	"github.com/elpatron68/side-launcher/internal/terminal"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath    string
	folders       []string
	workspaceFile string
	activeFile    string
	logLevel      string
	jsonOutput    bool

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// errSilent marks a failure that has already been reported to the user.
var errSilent = errors.New("")

var rootCmd = &cobra.Command{
	Use:           "side-launcher",
	Short:         "Run labeled shell commands defined in workspace and user settings",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return telemetry.Init(rootCtx, "side-launcher", Version, nil)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		telemetry.Shutdown(context.Background())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringSliceVar(&folders, "folder", nil, "workspace folder; repeatable, the first is the workspace root")
	pf.StringVar(&workspaceFile, "workspace-file", "", "path to a .code-workspace file")
	pf.StringVar(&activeFile, "file", "", "the active file exposed as CURRENT_FILE_* variables")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(listCmd, runCmd, serveCmd, doctorCmd, passwdCmd)
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg    *config.Config
	host   launcher.DetectHost
	engine *launcher.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
		_ = os.Setenv("SIDELAUNCHER_LOG_LEVEL", logLevel)
	}
	applog.InitFromEnvFallback(level)

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	host := launcher.DetectHost{
		Dir:           wd,
		WorkspaceFile: workspaceFile,
		Folders:       absAll(folders),
		ActiveFile:    activeFile,
		Logger:        applog.New("workspace"),
	}

	var term dispatch.TerminalHost
	if b := strings.TrimSpace(cfg.Terminal.Backend); b != "" && b != "none" {
		term = terminal.NewTmux(cfg.Terminal.Session,
			terminal.WithRunner(terminal.ExecRunner{Bin: b}),
			terminal.WithLogger(applog.New("terminal")))
	}
	d := dispatch.New(dispatch.NewShellRunner(cfg.Shell), term, dispatch.WithLogger(applog.New("dispatch")))
	provider := settings.New(cfg.UserSettingsPath(), cfg.Sources.WorkspaceSettingsFile, cfg.Sources.SettingsKey)
	engine := launcher.New(cfg, host, provider, d, applog.New("tasks"))
	return &app{cfg: cfg, host: host, engine: engine}, nil
}

func absAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		rootCancel()
		os.Exit(1)
	}
}
