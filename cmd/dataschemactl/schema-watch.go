package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// schemaWatchCmd represents the schema watch command
var schemaWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a schema file and reload it when it's modified",
	Long: `Watch a schema definitions file and load it whenever it changes.

The file is loaded once at start. The directory of the file is watched so
that editors which replace the file on save are picked up.

Example:
  dataschemactl schema watch /etc/data-schema/schemas.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchSchemas(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch schemas: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	schemaCmd.AddCommand(schemaWatchCmd)
}

func watchSchemas(filename string) error {
	target, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	env, err := connect()
	if err != nil {
		return err
	}
	defer env.close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	reload := func() { reloadSchemas(env, target) }
	reload()
	env.logger.Info("watching for schema changes", zap.String("file", target))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return watchLoop(watcher, target, env.logger, sigChan, reload)
}

func reloadSchemas(env *environment, target string) {
	result, err := loadSchemas(env, target, false)
	if err != nil {
		env.logger.Error("schema reload failed", zap.String("file", target), zap.Error(err))
		return
	}
	env.logger.Info("schemas reloaded", zap.String("file", target),
		zap.Strings("created", result.Created), zap.Strings("updated", result.Updated))
}

// watchLoop calls reload for every change to target until the watcher closes or a signal arrives
func watchLoop(
	watcher *fsnotify.Watcher,
	target string,
	logger *zap.Logger,
	stop <-chan os.Signal,
	reload func(),
) error {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isReloadEvent(event, target) {
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-stop:
			fmt.Println("\nShutting down...")
			return nil
		}
	}
}

func isReloadEvent(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
