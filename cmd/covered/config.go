package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/covered/internal/config"
)

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		// No configuration is needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.out, "covered %s (%s)\n", version, buildDate)
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or create the configuration file"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		RunE: func(*cobra.Command, []string) error {
			if err := config.Init(c.cfgPath, c.cfg); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "wrote", c.cfgPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(*cobra.Command, []string) error {
			shown := *c.cfg
			if shown.Storage.EncryptionKey != "" {
				shown.Storage.EncryptionKey = "********"
			}
			var m config.Manager
			return m.Write(c.out, &shown)
		},
	})
	return cfgCmd
}
