package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

type rootFlags struct {
	logLevel string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           appName,
		Short:         "Storefront cart, session and checkout",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override STOREFRONT_LOG_LEVEL")

	root.AddCommand(
		productsCmd(flags),
		cartCmd(flags),
		loginCmd(flags),
		logoutCmd(flags),
		whoamiCmd(flags),
		checkoutCmd(flags),
		serveCmd(flags),
		migrateCmd(),
		versionCmd(),
	)
	return root
}

// withApp boots the app for a single command and always closes it.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, a *app) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, cfg, bootstrapOptions{logLevel: flags.logLevel, logOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func productsCmd(flags *rootFlags) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List one page of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				params := pagination.ForPage(page, limit)
				result, err := a.catalog.Page(ctx, params.Limit, params.Offset)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSTOCK")
				for _, p := range result.Products {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Title, p.Price.StringFixed(2), p.Stock)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if pagination.HasMore(params, len(result.Products), result.Total) {
					fmt.Fprintf(cmd.OutOrStdout(), "more: --page %d\n", page+1)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "products per page")
	return cmd
}

func cartCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the persisted cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				return printCart(cmd.OutOrStdout(), a.cart.Snapshot())
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				product, err := a.finder.Find(ctx, id)
				if err != nil {
					return err
				}
				a.cart.AddItem(ctx, *product)
				return printCart(cmd.OutOrStdout(), a.cart.Snapshot())
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.cart.RemoveItem(ctx, id)
				return printCart(cmd.OutOrStdout(), a.cart.Snapshot())
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a line quantity; zero removes the line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a non-negative integer")
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.cart.UpdateQuantity(ctx, id, qty)
				return printCart(cmd.OutOrStdout(), a.cart.Snapshot())
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.cart.Clear(ctx)
				return printCart(cmd.OutOrStdout(), a.cart.Snapshot())
			})
		},
	}

	cmd.AddCommand(list, add, remove, set, clearCmd)
	return cmd
}

func loginCmd(flags *rootFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in against the auth API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				snap, err := a.auth.SignIn(ctx, auth.LoginRequest{Username: username, Password: password})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", snap.User.DisplayName())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				a.auth.SignOut(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func whoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(_ context.Context, a *app) error {
				snap := a.session.Current()
				if !snap.Authenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), "anonymous")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", snap.User.DisplayName(), snap.User.Email)
				return nil
			})
		},
	}
}

func checkoutCmd(flags *rootFlags) *cobra.Command {
	var form checkout.Form
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				confirmation, err := a.checkout.PlaceOrder(ctx, form)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(confirmation)
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Address, "address", "", "shipping address")
	cmd.Flags().StringVar(&form.CardNumber, "card", "", "card number")
	cmd.Flags().StringVar(&form.ExpiryDate, "expiry", "", "card expiry as MM/YY")
	cmd.Flags().StringVar(&form.CVV, "cvv", "", "card security code")
	return cmd
}

func serveCmd(flags *rootFlags) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				p := a.cfg.App.Port
				if port != "" {
					p = port
				}
				return a.serve(ctx, net.JoinHostPort("", p))
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "override STOREFRONT_APP_PORT")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage the storage schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			driver := cfg.Storage.NormalizedDriver()
			if driver != config.StorageDriverSQLite && driver != config.StorageDriverPostgres {
				return fmt.Errorf("migrate requires a sql storage driver (got %q)", driver)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a := &app{cfg: cfg, logg: newLogger(cfg, bootstrapOptions{logOut: cmd.ErrOrStderr()})}
			defer a.Close()
			client, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			sqlDB, err := client.DB().DB()
			if err != nil {
				return err
			}
			if command == "version" {
				v, err := migrate.Version(sqlDB, client.Dialect())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
				return nil
			}
			return migrate.Run(ctx, sqlDB, client.Dialect(), command)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", appName, Version, BuildTime)
		},
	}
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a positive integer")
	}
	return id, nil
}

func printCart(w io.Writer, snap cart.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tSUBTOTAL")
	for _, item := range snap.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", item.ProductID, item.Title, item.Quantity, item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t%d\t%s\n", snap.TotalQuantity, snap.TotalPrice.StringFixed(2))
	return tw.Flush()
}
