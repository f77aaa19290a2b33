package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bdwyertech/mussels/internal/build"
	"github.com/bdwyertech/mussels/internal/catalog"
	"github.com/bdwyertech/mussels/internal/store"
	"github.com/bdwyertech/mussels/pkg/mussels"
	"github.com/bdwyertech/mussels/pkg/recipedef"
)

var (
	recipeVersionFlag string
	recipeDryRun      bool
	recipeClean       bool
	recipeListAll     bool
)

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(recipeListCmd, recipeShowCmd, recipeCloneCmd, recipeBuildCmd)

	for _, c := range []*cobra.Command{recipeShowCmd, recipeCloneCmd, recipeBuildCmd} {
		c.Flags().StringVarP(&recipeVersionFlag, "version", "v", "", "Exact version to select")
	}
	recipeBuildCmd.Flags().BoolVarP(&recipeDryRun, "dry-run", "d", false, "Print the plan without executing any build")
	recipeBuildCmd.Flags().BoolVar(&recipeClean, "clean", false, "Discard prior install artifacts before building")
	recipeListCmd.Flags().BoolVarP(&recipeListAll, "all", "a", false, "Include tools in the listing")
}

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Inspect and build individual recipes",
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every recipe (and, with --all, tool) in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		return renderItemTable(cat, viper.GetString("cookbook"), recipeListAll)
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a resolved recipe's declarative fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		ref, err := referenceFromArgs(args[0])
		if err != nil {
			return err
		}
		return showItem(cat, ref)
	},
}

var recipeCloneCmd = &cobra.Command{
	Use:   "clone NAME",
	Short: "Materialize a catalog entry into the local overlay for editing",
	Long: `Copies a recipe or tool's definition out of its cookbook and into
<cwd>/mussels/{recipes,collections,tools}/, the always-trusted local
overlay, so an untrusted cookbook's entry can be reviewed and built
without trusting the whole cookbook.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		ref, err := referenceFromArgs(args[0])
		if err != nil {
			return err
		}
		return cloneItem(cat, ref)
	},
}

var recipeBuildCmd = &cobra.Command{
	Use:   "build NAME",
	Short: "Resolve, plan, and build a recipe and its transitive dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := referenceFromArgs(args[0])
		if err != nil {
			return err
		}
		return runBuild(cmd.Context(), ref)
	},
}

// referenceFromArgs parses a user-supplied positional argument into a
// Reference, applying precedence: explicit --version flag > embedded
// "==version" > index default, then the --cookbook flag, then the
// "local" overlay.
func referenceFromArgs(arg string) (mussels.Reference, error) {
	ref, err := mussels.ResolveReferenceString(arg, recipeVersionFlag)
	if err != nil {
		return mussels.Reference{}, err
	}
	if ref.Cookbook == "" {
		if cb := viper.GetString("cookbook"); cb != "" {
			ref.Cookbook = cb
		}
	}
	return ref.WithDefaultCookbook("local"), nil
}

func renderItemTable(cat *catalog.Catalog, cookbook string, includeTools bool) error {
	var items []mussels.Item
	if cookbook != "" {
		items = cat.ByCookbook[cookbook]
	} else {
		for _, books := range cat.ByCookbook {
			items = append(items, books...)
		}
	}

	rows := make([]mussels.Item, 0, len(items))
	for _, it := range items {
		if it.Kind == mussels.KindTool && !includeTools {
			continue
		}
		rows = append(rows, it)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name() != rows[j].Name() {
			return rows[i].Name() < rows[j].Name()
		}
		return rows[i].Version().GreaterThan(rows[j].Version())
	})

	if len(rows) == 0 {
		fmt.Println("No recipes found.")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Configure(func(config *tablewriter.Config) {
		config.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header("NAME", "VERSION", "KIND", "COOKBOOK")

	data := make([][]any, 0, len(rows))
	for _, it := range rows {
		kind := "recipe"
		if it.Kind == mussels.KindTool {
			kind = "tool"
		} else if it.Recipe.IsCollection {
			kind = "collection"
		}
		data = append(data, []any{it.Name(), string(it.Version()), kind, it.CookbookName()})
	}
	table.Bulk(data)
	return table.Render()
}

func showItem(cat *catalog.Catalog, ref mussels.Reference) error {
	idx := catalog.BuildIndex(cat)
	name, version, cookbook, err := idx.Select(ref)
	if err != nil {
		return err
	}
	item, ok := cat.Lookup(name, version, cookbook)
	if !ok {
		return fmt.Errorf("resolved %s-%s in cookbook %s but it is missing from the catalog", name, version, cookbook)
	}

	fmt.Printf("name:     %s\n", item.Name())
	fmt.Printf("version:  %s\n", item.Version())
	fmt.Printf("cookbook: %s\n", item.CookbookName())
	fmt.Printf("platform: %s\n", joinPlatforms(item.Platform()))

	switch item.Kind {
	case mussels.KindTool:
		t := item.Tool
		fmt.Printf("detect.command:       %s\n", t.Detect.Command)
		if t.Detect.VersionRegex != "" {
			fmt.Printf("detect.version_regex: %s\n", t.Detect.VersionRegex)
		}
		if t.Detect.MinVersion != "" {
			fmt.Printf("detect.min_version:   %s\n", t.Detect.MinVersion)
		}
	default:
		r := item.Recipe
		fmt.Printf("is_collection: %t\n", r.IsCollection)
		if r.SourceURL != "" {
			fmt.Printf("source_url:    %s\n", r.SourceURL)
		}
		if len(r.Dependencies) > 0 {
			fmt.Printf("dependencies:  %s\n", strings.Join(r.Dependencies, ", "))
		}
		if len(r.RequiredTools) > 0 {
			fmt.Printf("required_tools: %s\n", strings.Join(r.RequiredTools, ", "))
		}
		for target, paths := range r.InstallPaths {
			label := target
			if label == "" {
				label = "(universal)"
			}
			fmt.Printf("install_paths[%s]:\n", label)
			for role, entries := range paths {
				fmt.Printf("  %s: %s\n", role, strings.Join(entries, ", "))
			}
		}
	}
	return nil
}

func joinPlatforms(platforms []mussels.Platform) string {
	if len(platforms) == 0 {
		return "(universal)"
	}
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func cloneItem(cat *catalog.Catalog, ref mussels.Reference) error {
	idx := catalog.BuildIndex(cat)
	name, version, cookbook, err := idx.Select(ref)
	if err != nil {
		return err
	}
	item, ok := cat.Lookup(name, version, cookbook)
	if !ok {
		return fmt.Errorf("resolved %s-%s in cookbook %s but it is missing from the catalog", name, version, cookbook)
	}

	encoded, err := recipedef.Encode(item)
	if err != nil {
		return err
	}

	subtree := "recipes"
	switch {
	case item.Kind == mussels.KindTool:
		subtree = "tools"
	case item.Recipe.IsCollection:
		subtree = "collections"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	dest := filepath.Join(cwd, "mussels", subtree, item.Name()+".toml")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, encoded, 0o644); err != nil {
		return err
	}

	fmt.Printf("cloned %s-%s into %s\n", item.Name(), item.Version(), dest)
	return nil
}

func runBuild(ctx context.Context, ref mussels.Reference) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	target := hostTarget()
	batches, toolTriples, idx, err := resolvePlan(cat, ref, target)
	if err != nil {
		return err
	}

	tc, err := probeToolchain(ctx, cat, idx, toolTriples)
	if err != nil {
		return err
	}

	s := store.New(resolvedDataDir())
	opts, err := s.LoadOptions()
	if err != nil {
		opts = &store.Options{}
	}

	summary := build.Drive(ctx, batches, cat, tc, build.Options{
		DataDir:     resolvedDataDir(),
		Target:      target,
		DryRun:      recipeDryRun,
		Clean:       recipeClean,
		WorkerCount: opts.GetConcurrency(),
	})

	renderSummary(summary)

	if !summary.Success {
		return fmt.Errorf("build did not complete successfully")
	}
	return nil
}

func renderSummary(summary build.Summary) {
	if len(summary.Outcomes) == 0 {
		return
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Configure(func(config *tablewriter.Config) {
		config.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header("BATCH", "NAME", "VERSION", "RESULT", "ELAPSED")

	data := make([][]any, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		result := "success"
		switch {
		case o.Skipped:
			result = "skipped"
		case !o.Success:
			result = "failed"
		}
		data = append(data, []any{o.BatchIndex, o.Name, o.Version, result, o.Elapsed.Round(10_000_000)})
	}
	table.Bulk(data)
	_ = table.Render()
}
