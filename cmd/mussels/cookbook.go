package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bdwyertech/mussels/internal/store"
	"github.com/bdwyertech/mussels/internal/sync"
	"github.com/bdwyertech/mussels/pkg/mussels"
)

var (
	cookbookAddURL    string
	cookbookUpdateAll bool
)

func init() {
	rootCmd.AddCommand(cookbookCmd)
	cookbookCmd.AddCommand(cookbookListCmd, cookbookShowCmd, cookbookUpdateCmd, cookbookTrustCmd, cookbookAddCmd, cookbookRemoveCmd)

	cookbookAddCmd.Flags().StringVar(&cookbookAddURL, "url", "", "Git URL to sync the cookbook from")
	cookbookUpdateCmd.Flags().BoolVarP(&cookbookUpdateAll, "all", "a", false, "Update every known cookbook instead of just the named ones")
}

var cookbookCmd = &cobra.Command{
	Use:   "cookbook",
	Short: "Manage cookbook sources: list, show, update, trust, add, remove",
}

var cookbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known cookbook and its trust state",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.New(resolvedDataDir())
		doc, err := s.LoadCookbooks()
		if err != nil {
			return err
		}
		return renderCookbookTable(doc)
	},
}

var cookbookShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show one cookbook's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.New(resolvedDataDir())
		doc, err := s.LoadCookbooks()
		if err != nil {
			return err
		}
		cb, ok := doc[args[0]]
		if !ok {
			return fmt.Errorf("unknown cookbook %q", args[0])
		}
		fmt.Printf("name:    %s\n", cb.Name)
		fmt.Printf("url:     %s\n", orNone(cb.URL))
		fmt.Printf("path:    %s\n", cb.Path)
		fmt.Printf("trusted: %t\n", cb.Trusted)
		fmt.Printf("ref:     %s\n", orNone(cb.Ref))
		return nil
	},
}

var cookbookUpdateCmd = &cobra.Command{
	Use:   "update [NAME...]",
	Short: "Sync one, several, or (with --all) every known cookbook from its git remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.New(resolvedDataDir())
		doc, err := s.LoadCookbooks()
		if err != nil {
			return err
		}

		names := args
		if cookbookUpdateAll || len(names) == 0 {
			names = nil
			for name := range doc {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		var targets []sync.Target
		for _, name := range names {
			cb, ok := doc[name]
			if !ok || cb.URL == "" {
				log.Warnf("cookbook %q has no URL, skipping update", name)
				continue
			}
			targets = append(targets, sync.Target{
				Name:       name,
				URL:        cb.URL,
				TargetPath: filepath.Join(resolvedDataDir(), "cookbooks", name),
			})
		}
		if len(targets) == 0 {
			fmt.Println("nothing to update.")
			return nil
		}

		s2 := store.New(resolvedDataDir())
		opts, _ := s2.LoadOptions()
		results := sync.UpdateAll(cmd.Context(), sync.NewSyncer(), targets, opts.GetConcurrency())

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Printf("%-20s FAILED: %v\n", r.Target.Name, r.Err)
				continue
			}
			fmt.Printf("%-20s OK\n", r.Target.Name)
		}
		if failed > 0 {
			return fmt.Errorf("%d cookbook(s) failed to update", failed)
		}
		return nil
	},
}

var cookbookTrustCmd = &cobra.Command{
	Use:   "trust NAME",
	Short: "Mark a cookbook as trusted, permitting its recipes to build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return store.New(resolvedDataDir()).Trust(args[0])
	},
}

var cookbookAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a new cookbook by name and git URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cb := mussels.Cookbook{
			Name:    name,
			URL:     cookbookAddURL,
			Path:    filepath.Join(resolvedDataDir(), "cookbooks", name),
			Trusted: true,
		}
		return store.New(resolvedDataDir()).AddCookbook(cb)
	},
}

var cookbookRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Forget a registered cookbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return store.New(resolvedDataDir()).RemoveCookbook(args[0])
	},
}

func renderCookbookTable(doc map[string]mussels.Cookbook) error {
	if len(doc) == 0 {
		fmt.Println("No cookbooks registered.")
		return nil
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewTable(os.Stdout)
	table.Configure(func(config *tablewriter.Config) {
		config.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header("NAME", "TRUSTED", "URL", "PATH")

	data := make([][]any, 0, len(names))
	for _, name := range names {
		cb := doc[name]
		data = append(data, []any{cb.Name, cb.Trusted, orNone(cb.URL), cb.Path})
	}
	table.Bulk(data)
	return table.Render()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
