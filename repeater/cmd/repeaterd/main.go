package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/mlrepeater/common/go/logging"
	"github.com/yanet-platform/mlrepeater/common/go/xcmd"
	"github.com/yanet-platform/mlrepeater/repeater/daemon"
)

var rootCmd = &cobra.Command{
	Use:   "repeaterd",
	Short: "Multi-link Wi-Fi repeater forwarding daemon",
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStateCmd(&CtlCmd{}))
	rootCmd.AddCommand(newStatsCmd(&CtlCmd{}))
	rootCmd.AddCommand(newRadioCmd(&CtlCmd{}))
	rootCmd.AddCommand(newPolicyCmd(&CtlCmd{}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// RunCmd is the command line arguments of the run command.
type RunCmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
}

func newRunCmd() *cobra.Command {
	cmd := RunCmd{}

	c := &cobra.Command{
		Use:   "run",
		Short: "Run the repeater daemon",
		RunE: func(*cobra.Command, []string) error {
			err := run(cmd)
			if xcmd.IsInterrupted(err) {
				return nil
			}
			return err
		},
	}
	c.Flags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	c.MarkFlagRequired("config")

	return c
}

func run(cmd RunCmd) error {
	cfg, err := daemon.LoadConfig(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	d, err := daemon.NewDaemon(cfg, daemon.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}
	defer d.Close()

	wg, ctx := errgroup.WithContext(context.Background())
	wg.Go(func() error {
		return d.Run(ctx)
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		log.Infof("caught signal: %v", err)
		return err
	})

	return wg.Wait()
}
