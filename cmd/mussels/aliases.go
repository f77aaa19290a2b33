package main

import (
	"github.com/spf13/cobra"
)

// Top-level shortcuts forwarding to their full group/command form:
// build, list, show, update forward to recipe build, recipe list,
// recipe show, cookbook update respectively. Each alias shares the
// underlying implementation function and flag variables with its full
// form rather than wrapping the *cobra.Command itself, since flag
// registration on the full form happens in another file's init() with
// no guaranteed ordering relative to this one.
func init() {
	buildAliasCmd.Flags().StringVarP(&recipeVersionFlag, "version", "v", "", "Exact version to select")
	buildAliasCmd.Flags().BoolVarP(&recipeDryRun, "dry-run", "d", false, "Print the plan without executing any build")
	buildAliasCmd.Flags().BoolVar(&recipeClean, "clean", false, "Discard prior install artifacts before building")
	buildAliasCmd.RunE = recipeBuildCmd.RunE

	showAliasCmd.Flags().StringVarP(&recipeVersionFlag, "version", "v", "", "Exact version to select")
	showAliasCmd.RunE = recipeShowCmd.RunE

	listAliasCmd.Flags().BoolVarP(&recipeListAll, "all", "a", false, "Include tools in the listing")
	listAliasCmd.RunE = recipeListCmd.RunE

	updateAliasCmd.Flags().BoolVarP(&cookbookUpdateAll, "all", "a", false, "Update every known cookbook instead of just the named ones")
	updateAliasCmd.RunE = cookbookUpdateCmd.RunE

	rootCmd.AddCommand(buildAliasCmd, listAliasCmd, showAliasCmd, updateAliasCmd)
}

var buildAliasCmd = &cobra.Command{
	Use:   "build NAME",
	Short: "Alias for \"recipe build\"",
	Args:  cobra.ExactArgs(1),
}

var listAliasCmd = &cobra.Command{
	Use:   "list",
	Short: "Alias for \"recipe list\"",
}

var showAliasCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Alias for \"recipe show\"",
	Args:  cobra.ExactArgs(1),
}

var updateAliasCmd = &cobra.Command{
	Use:   "update [NAME...]",
	Short: "Alias for \"cookbook update\"",
}
