package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Permission cache commands",
	Long:  `Inspect and invalidate the permission cache: refresh entries, run authorization checks`,
}

var (
	refreshUser string
	refreshMenu string
	refreshAll  bool
)

var refreshCacheCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Invalidate cached permissions",
	Long:  `Invalidate one user's entries (--user), every user (--all), or the menu hierarchy (--menu)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(func(ctx context.Context, app *application) error {
			switch {
			case refreshUser != "":
				return app.Permissions.RefreshUserCache(ctx, refreshUser)
			case refreshMenu != "":
				return app.Permissions.RefreshMenuCache(ctx, refreshMenu)
			case refreshAll:
				return app.Permissions.RefreshAllCaches(ctx)
			}
			return fmt.Errorf("one of --user, --menu or --all is required")
		})
	},
}

var checkCacheCmd = &cobra.Command{
	Use:   "check [username] [menu-code] [level]",
	Short: "Run an authorization check",
	Long:  `Answer whether a user holds at least the given level on a menu, going through the cache like a request would`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := permission.ParseLevel(args[2])
		if err != nil {
			return err
		}
		return withApplication(func(ctx context.Context, app *application) error {
			allowed := app.Permissions.HasPermission(ctx, args[0], args[1], level)
			fmt.Fprintf(os.Stdout, "user=%s menu=%s level=%s allowed=%t\n", args[0], args[1], level, allowed)
			return nil
		})
	},
}

func withApplication(fn func(ctx context.Context, app *application) error) error {
	cfg, err := bootstrapConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func init() {
	refreshCacheCmd.Flags().StringVar(&refreshUser, "user", "", "username whose entries are invalidated")
	refreshCacheCmd.Flags().StringVar(&refreshMenu, "menu", "", "menu code whose change requires a hierarchy refresh")
	refreshCacheCmd.Flags().BoolVar(&refreshAll, "all", false, "invalidate every user's entries")
	refreshCacheCmd.MarkFlagsMutuallyExclusive("user", "menu", "all")

	cacheCmd.AddCommand(refreshCacheCmd)
	cacheCmd.AddCommand(checkCacheCmd)

	rootCmd.AddCommand(cacheCmd)
}
