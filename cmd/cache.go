// file: cmd/cache.go
// version: 1.0.0
// guid: efad4910-ce78-45b5-8313-8c7c0c75643b

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdfalk/spit/internal/app"
	"github.com/jdfalk/spit/internal/cache"
	"github.com/jdfalk/spit/internal/config"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}

	cachePurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached result",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			return runCachePurge(cmd, force)
		},
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show the cache backend and how many results it holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats(cmd)
		},
	}
)

func init() {
	cachePurgeCmd.Flags().Bool("yes", false, "Skip confirmation prompt")

	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

// persistentCache opens the configured cache, or returns nil when the
// backend keeps nothing between runs.
func persistentCache(cmd *cobra.Command) (cache.Store, error) {
	cfg := config.AppConfig.Cache
	switch cfg.Type {
	case cache.BackendPebble, cache.BackendSQLite:
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "The %s cache keeps nothing between runs.\n", cfg.Type)
		return nil, nil
	}
	return app.OpenCache(cfg)
}

func runCachePurge(cmd *cobra.Command, force bool) error {
	store, err := persistentCache(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if !force {
		confirmed, err := promptYesNo(cmd.InOrStdin(), out, fmt.Sprintf("Delete every cached result in %s", config.AppConfig.Cache.Path))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborted. Nothing deleted.")
			return nil
		}
	}

	if err := store.Purge(); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	fmt.Fprintln(out, "Cache purged.")
	return nil
}

func runCacheStats(cmd *cobra.Command) error {
	store, err := persistentCache(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	cfg := config.AppConfig.Cache
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend: %s\n", cfg.Type)
	fmt.Fprintf(out, "Path:    %s\n", cfg.Path)
	fmt.Fprintf(out, "TTL:     %s\n", cfg.TTL)
	if counter, ok := store.(cache.Counter); ok {
		n, err := counter.Count()
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}
		fmt.Fprintf(out, "Entries: %d\n", n)
	}
	return nil
}

func promptYesNo(in io.Reader, out io.Writer, action string) (bool, error) {
	fmt.Fprintf(out, "%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}
