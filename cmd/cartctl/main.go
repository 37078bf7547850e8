// cmd/cartctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/notify"
	appcfg "github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/config"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/logging"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/platform/di"
)

var (
	logger *zap.Logger
	cont   *di.Container

	verbose bool
	devLog  bool
)

var rootCmd = &cobra.Command{
	Use:   "cartctl",
	Short: "Papelería cart client",
	Long: `cartctl manages the local shopping cart of the Papelería store.

The cart lives in local storage (file, sqlite, postgres, firestore or memory),
partitioned by owner: a guest cart before login, one cart per account after.
Logging in merges the guest cart into the account's server cart once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appcfg.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, devLog)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cont, err = di.NewContainer(cmd.Context(), cfg, logger, di.Options{
			Notifier: notify.NewWriterNotifier(cmd.ErrOrStderr()),
		})
		if err != nil {
			return err
		}
		return cont.Start(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cont != nil {
			err = cont.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "human-readable log output")

	rootCmd.AddCommand(cartCmd, sessionCmd, checkoutCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if cont != nil {
			_ = cont.Close()
		}
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		os.Exit(1)
	}
}
