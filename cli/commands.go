// Package cli provides the Cobra-based CLI for the product catalog.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"product_catalog/client"
	"product_catalog/domain"
	"product_catalog/form"
	"product_catalog/listview"
)

var (
	rootCmd = &cobra.Command{
		Use:           "catalog",
		Short:         "Financial products catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg := viper.GetString("config"); cfg != "" {
				viper.SetConfigFile(cfg)
				if err := viper.ReadInConfig(); err != nil {
					return err
				}
			}

			lvl := slog.LevelInfo
			switch strings.ToLower(viper.GetString("log-level")) {
			case "debug":
				lvl = slog.LevelDebug
			case "warn", "warning":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			}
			slog.SetDefault(slog.New(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
			))

			// tests inject the store
			if productStore != nil {
				return nil
			}
			apiURL := viper.GetString("api-url")
			if apiURL == "" {
				return errors.New("api-url required")
			}
			productStore = client.New(apiURL, client.WithTimeout(viper.GetDuration("timeout")))
			return nil
		},
	}

	productStore domain.ProductStore
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("api-url", "http://localhost:3002/bp", "catalog API base URL")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.SetEnvPrefix("CATALOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		newShellCmd(),
		newServeCmd(),
		newListCmd(),
		newGetCmd(),
		newVerifyCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newImportCmd(),
		newExportCmd(),
	)
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := bufio.NewReader(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "catalog> ")
				line, err := r.ReadString('\n')
				line = strings.TrimSpace(line)
				if line == "exit" || line == "quit" {
					return nil
				}
				if line != "" {
					rootCmd.SetArgs(strings.Fields(line))
					if err := rootCmd.Execute(); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
					}
					rootCmd.SetArgs(nil)
				}
				if err != nil {
					return nil
				}
			}
		},
	}
}

func newListCmd() *cobra.Command {
	var search, output string
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products with search and pagination",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := listview.New(productStore, listview.WithPageSize(pageSize))
			if err := state.Load(cmd.Context()); err != nil {
				return err
			}
			state.ApplySearch(search)
			if page != 1 && !state.GoToPage(page) {
				return fmt.Errorf("page %d out of range (1..%d)", page, state.Snapshot().TotalPages)
			}

			snap := state.Snapshot()
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), snap.Page)
			}
			for _, p := range snap.Page {
				fmt.Fprintf(cmd.OutOrStdout(), "%s | %s | %s | %s | %s\n",
					p.ID, p.Name, p.Description, p.DateRelease, p.DateRevision)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d results, page %d of %d\n",
				snap.TotalResults, snap.CurrentPage, snap.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by id, name or description")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", listview.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&output, "output", "", "output format")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get product by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := productStore.Get(cmd.Context(), args[0])
			if err != nil {
				if domain.IsProductNotFoundError(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					return nil
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Check whether an identifier is taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exists, err := productStore.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	}
}

// productFlags are shared by create and update.
type productFlags struct {
	id, name, description, logo, dateRelease string
}

func (f *productFlags) register(cmd *cobra.Command, withID bool) {
	if withID {
		cmd.Flags().StringVar(&f.id, "id", "", "identifier")
	}
	cmd.Flags().StringVar(&f.name, "name", "", "name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.logo, "logo", "", "logo URL")
	cmd.Flags().StringVar(&f.dateRelease, "date-release", "", "release date (YYYY-MM-DD); revision is set one year later")
}

// apply copies the changed flags onto the form.
func (f *productFlags) apply(cmd *cobra.Command, fc *form.Controller) error {
	if cmd.Flags().Changed("id") {
		fc.OnIDChange(f.id)
	}
	if cmd.Flags().Changed("name") {
		fc.SetName(f.name)
	}
	if cmd.Flags().Changed("description") {
		fc.SetDescription(f.description)
	}
	if cmd.Flags().Changed("logo") {
		fc.SetLogo(f.logo)
	}
	if cmd.Flags().Changed("date-release") {
		if err := fc.OnDateReleaseChange(f.dateRelease); err != nil {
			return err
		}
	}
	return nil
}

func newCreateCmd() *cobra.Command {
	var flags productFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := form.New(productStore, "")
			defer fc.Close()
			if err := flags.apply(cmd, fc); err != nil {
				return err
			}
			return submit(cmd, fc)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var flags productFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := form.New(productStore, args[0])
			defer fc.Close()
			if err := fc.Start(cmd.Context()); err != nil {
				return err
			}
			if err := flags.apply(cmd, fc); err != nil {
				return err
			}
			return submit(cmd, fc)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func submit(cmd *cobra.Command, fc *form.Controller) error {
	start := time.Now()
	if err := fc.Submit(cmd.Context()); err != nil {
		if errs := fc.Errors(); !errs.Valid() {
			printFieldErrors(cmd.ErrOrStderr(), errs)
		}
		return err
	}
	p := fc.Draft()
	slog.Info("product saved",
		"mode", fc.Mode().String(),
		"product_id", p.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return printJSON(cmd.OutOrStdout(), p)
}

func newDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := listview.New(productStore, listview.WithNotifier(alertWriter{cmd.ErrOrStderr()}))
			state.OpenDelete(args[0])
			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %s? (y/N): ", args[0])
				var resp string
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &resp); err != nil || (resp != "y" && resp != "Y") {
					state.CancelDelete()
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}
			if err := state.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	return cmd
}

// alertWriter reports list failures on the terminal.
type alertWriter struct {
	w io.Writer
}

func (a alertWriter) Alert(message string) {
	fmt.Fprintln(a.w, "ALERT:", message)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printFieldErrors(w io.Writer, errs domain.FieldErrors) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, errs[k])
	}
}

func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
