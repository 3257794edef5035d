// file: cmd/providers.go
// version: 1.0.0
// guid: b656dd9e-6542-4cc5-becd-6435e62e1801

package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jdfalk/spit/internal/app"
	"github.com/jdfalk/spit/internal/config"
	"github.com/jdfalk/spit/internal/models"
	"github.com/jdfalk/spit/internal/registry"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the registered providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		return runProviders(cmd, category)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the metadata categories and who serves them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCategories(cmd)
	},
}

func init() {
	providersCmd.Flags().String("category", "", "only list providers serving this category")
}

// registryForListing builds the registry without opening the cache.
func registryForListing() (*registry.Registry, error) {
	return app.BuildRegistry(config.AppConfig, slog.Default())
}

func runProviders(cmd *cobra.Command, category string) error {
	var filter models.Category
	if category != "" {
		c, err := models.ParseCategory(category)
		if err != nil {
			return err
		}
		filter = c
	}

	reg, err := registryForListing()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGROUP\tENABLED\tRATE\tCATEGORIES")
	for _, e := range reg.Providers() {
		d := e.Descriptor
		if filter.Valid() && !d.Supports(filter) {
			continue
		}
		names := make([]string, 0, len(d.Categories))
		for _, c := range d.Categories {
			names = append(names, c.String())
		}
		rate := "-"
		if d.RateLimit > 0 {
			rate = fmt.Sprintf("%g/s", d.RateLimit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", d.Name, d.Group, d.Enabled, rate, strings.Join(names, ","))
	}
	return tw.Flush()
}

func runCategories(cmd *cobra.Command) error {
	reg, err := registryForListing()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tKIND\tPROVIDERS")
	for _, c := range models.AllCategories() {
		var names []string
		for _, e := range reg.Providers() {
			if e.Descriptor.Enabled && e.Descriptor.Supports(c) {
				names = append(names, e.Descriptor.Name)
			}
		}
		served := strings.Join(names, ",")
		if served == "" {
			served = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c, c.Kind(), served)
	}
	return tw.Flush()
}
