package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellcluster/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the simulated baseline cache",
		Long: `Baselines are cached per cell table and option set when the seed is
fixed. Entries live under the user cache directory, or in Redis when
--redis-url (or CELLCLUSTER_REDIS_URL) is set.`,
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				count int
				where string
				err   error
			)
			if redisURL != "" {
				count, err = clearRedis(cmd, redisURL)
				where = "Redis prefix: " + keyPrefix
			} else {
				count, where, err = clearFiles()
			}
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached baselines", count)
			printDetail("%s", where)
			return nil
		},
	}
	cmd.Flags().StringVar(&redisURL, "redis-url", os.Getenv("CELLCLUSTER_REDIS_URL"), "clear baselines stored in Redis")
	return cmd
}

func clearRedis(cmd *cobra.Command, url string) (int, error) {
	rc, err := cache.NewRedisCache(cmd.Context(), url)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return rc.Clear(cmd.Context(), keyPrefix)
}

func clearFiles() (int, string, error) {
	dir, err := cacheDir()
	if err != nil {
		return 0, "", err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, dir, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, "", err
	}
	n, err := fc.Clear()
	return n, "Directory: " + fc.Dir(), err
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the baseline cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
