package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/corkboard"
)

var initForce bool

// initCmd writes a starter config file.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a corkboard.yaml with the default settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		const name = "corkboard.yaml"
		if _, err := os.Stat(name); err == nil && !initForce {
			fatal("Refusing to overwrite", fmt.Errorf("%s already exists (use --force)", name))
		}

		data, err := yaml.Marshal(corkboard.DefaultConfig())
		if err != nil {
			fatal("Error encoding config", err)
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			fatal("Error writing config", err)
		}
		fmt.Println("Wrote", name)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}
