// Command steprun is the operator-facing front end for the step-chain
// engine: it loads .step source, optionally serves it over a websocket,
// and can check a source tree for syntax errors without running it.
//
// Grounded on the teacher's main.go (flag-driven load/watch/serve startup
// sequence) and the pack's codenerd cmd/nerd/main.go (cobra root command
// plus subcommands, a package-level *zap.Logger built once in
// PersistentPreRunE, graceful shutdown on SIGINT/SIGTERM).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	stepconfig "github.com/caelum-lang/stepweave/cmd/config"
	"github.com/caelum-lang/stepweave/loader"
	"github.com/caelum-lang/stepweave/netserve"
	"github.com/caelum-lang/stepweave/sqlstate"
	"github.com/caelum-lang/stepweave/step"
)

var (
	configPath string
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "steprun",
	Short: "Load and run step-chain .step source trees",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		built, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [task] [args...]",
	Short: "Load the configured sources and call one task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configured sources and serve them over websocket",
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the configured sources and report syntax/definition errors",
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "steprun.yaml", "path to config file")
	rootCmd.AddCommand(runCmd, serveCmd, checkCmd)
}

func buildModule(cfg *stepconfig.Config) (*step.Module, error) {
	m := step.NewModule()
	l := &loader.Loader{
		Logger: func(msg string, fields ...any) {
			logger.Sugar().Infow(msg, fields...)
		},
	}
	if cfg.SQL.Enabled {
		hook, err := sqlstate.NewMySQLBindHook(cfg.SQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("sql bind hook: %w", err)
		}
		hook.Logger = func(msg string, fields ...any) {
			logger.Sugar().Infow(msg, fields...)
		}
		m.BindHooks = append(m.BindHooks, hook)
	}
	for _, src := range cfg.Sources {
		if err := l.LoadDirectory(m, src, true); err != nil {
			return nil, fmt.Errorf("loading %s: %w", src, err)
		}
	}
	if cfg.Watch && len(cfg.Sources) > 0 {
		if _, err := l.Watch(m, cfg.Sources[0]); err != nil {
			logger.Warn("watch failed", zap.String("path", cfg.Sources[0]), zap.Error(err))
		}
	}
	return m, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := stepconfig.Load(configPath)
	if err != nil {
		return err
	}
	m, err := buildModule(cfg)
	if err != nil {
		return err
	}

	task := args[0]
	callArgs := make([]step.Term, len(args)-1)
	for i, a := range args[1:] {
		callArgs[i] = step.Str(a)
	}
	text, ok, _, err := m.Call(task, callArgs, step.State{})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s did not succeed", task)
	}
	fmt.Println(text)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := stepconfig.Load(configPath)
	if err != nil {
		return err
	}
	m, err := buildModule(cfg)
	if err != nil {
		return err
	}

	srv := &netserve.Server{
		Root: m,
		Logger: func(msg string, fields ...any) {
			logger.Sugar().Infow(msg, fields...)
		},
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", cfg.Serve.Addr))
		errc <- srv.ListenAndServe(cfg.Serve.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Close()
	case err := <-errc:
		return err
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := stepconfig.Load(configPath)
	if err != nil {
		return err
	}
	_, err = buildModule(cfg)
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("steprun failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
