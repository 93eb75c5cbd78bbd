package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local dashboard API",
		Long: `Serve the streak dashboard API on localhost. The same record is shared
with the CLI commands; stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().Int("port", 0, "Override [api].port")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := openDaemon(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		d.Config.API.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Serve(ctx)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDaemon(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			out, err := d.Config.Encode()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# home: %s\n# database: %s\n%s", d.Home, d.DB.Path(), out)

			if show, _ := cmd.Flags().GetBool("entries"); !show {
				return nil
			}
			entries, err := d.DB.ListEntries()
			if err != nil {
				return fmt.Errorf("list stored entries: %w", err)
			}
			fmt.Fprintf(w, "\n# stored entries (%d)\n", len(entries))
			for _, e := range entries {
				fmt.Fprintf(w, "%-16s %s  (updated %s)\n", e.Key, e.Value, e.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().Bool("entries", false, "Also dump the raw stored keys")
	return cmd
}
