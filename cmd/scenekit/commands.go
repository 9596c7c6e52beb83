package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/scenekit/internal/core/config"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/scene"
	"github.com/zeusync/scenekit/internal/injector"
)

type options struct {
	configPath string
	scenePath  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "scenekit",
		Short:         "Run a scene through the component lifecycle engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the engine config (defaults when empty)")
	root.PersistentFlags().StringVarP(&opts.scenePath, "scene", "s", "scenes/demo.yaml", "path to the scene descriptor")

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config and scene descriptor without running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.LoadFile(opts.configPath); err != nil {
				return err
			}
			desc, err := loadScene(opts.scenePath)
			if err != nil {
				return err
			}
			reg, err := injector.ProvideComponents()
			if err != nil {
				return err
			}
			if err := desc.Validate(reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scene %q: %d entities, %d views\n", desc.Name, len(desc.Entities), len(desc.Views))
			return nil
		},
	})
	return root
}

func loadScene(path string) (*scene.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return scene.LoadDescriptor(f)
}

// run blocks until SIGINT/SIGTERM. SIGUSR1 toggles application focus.
func run(parent context.Context, opts *options) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	desc, err := loadScene(opts.scenePath)
	if err != nil {
		return err
	}

	engine, cleanup, err := injector.InitializeEngine(cfg, desc)
	if err != nil {
		return err
	}
	defer cleanup()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	focus := make(chan os.Signal, 1)
	signal.Notify(focus, syscall.SIGUSR1)
	defer signal.Stop(focus)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-focus:
				engine.Logger.Info("focus toggled")
				engine.Scheduler.ToggleFocus()
			}
		}
	}()

	engine.Logger.Info("starting", log.String("scene", desc.Name), log.String("config", opts.configPath))
	return engine.Run(ctx)
}
