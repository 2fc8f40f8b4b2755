// Package main is the entry point for the notifyd admission-controlled
// push delivery service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd is the base command: a persistent --config flag plus
// subcommands registered from their own init().
var rootCmd = &cobra.Command{
	Use:     "notifyd",
	Short:   "notifyd is a thread-budget admission controller for push delivery",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"path to a YAML config file (optional, env vars always apply)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
