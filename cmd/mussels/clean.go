package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var cleanYes bool

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.AddCommand(cleanCacheCmd, cleanInstallCmd, cleanLogsCmd, cleanAllCmd)

	for _, c := range []*cobra.Command{cleanCacheCmd, cleanInstallCmd, cleanLogsCmd, cleanAllCmd} {
		c.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip the confirmation prompt")
	}
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached downloads, installed artifacts, or logs",
}

var cleanCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Remove the download/extract workspace for every recipe",
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeUnderDataDir("cache")
	},
}

var cleanInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Remove every recipe's installed artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeUnderDataDir("install")
	},
}

var cleanLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Remove the build log directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeUnderDataDir("log")
	},
}

var cleanAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Remove cache, install, and log directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, subtree := range []string{"cache", "install", "log"} {
			if err := removeUnderDataDir(subtree); err != nil {
				return err
			}
		}
		return nil
	},
}

func removeUnderDataDir(subtree string) error {
	target := filepath.Join(resolvedDataDir(), subtree)

	if !cleanYes && !confirm(fmt.Sprintf("remove %s?", target)) {
		fmt.Println("aborted.")
		return nil
	}

	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("removing %s: %w", target, err)
	}
	fmt.Printf("removed %s\n", target)
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
