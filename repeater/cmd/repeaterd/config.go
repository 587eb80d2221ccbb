package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/mlrepeater/repeater/daemon"
)

func newConfigCmd() *cobra.Command {
	configPath := ""

	c := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg := daemon.DefaultConfig()
			if configPath != "" {
				loaded, err := daemon.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = c.OutOrStdout().Write(data)
			return err
		},
	}
	c.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")

	return c
}
