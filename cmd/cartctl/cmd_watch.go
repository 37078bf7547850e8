// cmd/cartctl/cmd_watch.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	uc "github.com/MaYdaN875/Papeleria-store-sub000/internal/application/usecase"
)

var watchPoll time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the cart every time it changes (also from other processes)",
	Long: `watch prints the cart whenever it changes. Changes made by other processes are
picked up through the storage change feed; backends without one (sqlite) need --poll.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		views := make(chan uc.CartView, 16)

		unsubscribe := cont.Cart.Subscribe(func(v uc.CartView) {
			select {
			case views <- v:
			default:
				// the printer is behind; a later snapshot supersedes this one
			}
		})
		defer unsubscribe()

		g, ctx := errgroup.WithContext(cmd.Context())

		g.Go(func() error {
			last := viewKey(cont.Cart.Snapshot())
			printCart(out, cont.Cart.Snapshot(), nil)
			for {
				select {
				case <-ctx.Done():
					return nil
				case v := <-views:
					if v.Loading {
						fmt.Fprintln(out, "… syncing")
						continue
					}
					// a mutation and the reload it triggers emit the same state
					key := viewKey(v)
					if key == last {
						continue
					}
					last = key
					fmt.Fprintf(out, "\n[%s]\n", time.Now().Format("15:04:05"))
					printCart(out, v, nil)
				}
			}
		})

		g.Go(func() error {
			if watchPoll <= 0 {
				<-ctx.Done()
				return nil
			}
			t := time.NewTicker(watchPoll)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					if err := cont.Cart.Load(ctx); err != nil {
						logger.Warn("reload failed", zap.Error(err))
					}
				}
			}
		})

		return g.Wait()
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 0, "also reload on this interval (e.g. 2s)")
}

func viewKey(v uc.CartView) string {
	var b strings.Builder
	b.WriteString(v.Owner.String())
	for _, it := range v.Items {
		fmt.Fprintf(&b, "|%s:%d:%t", it.ID, it.Quantity, it.Removing)
	}
	return b.String()
}
