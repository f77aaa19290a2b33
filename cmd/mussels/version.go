package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bdwyertech/mussels/internal/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		var inv version.Inventory
		if cat, err := loadCatalog(); err == nil {
			inv.Cookbooks = len(cat.Cookbooks)
			inv.Items = len(cat.Items)
		}
		fmt.Println(version.GetBuildInfo(inv).String())
	},
}
