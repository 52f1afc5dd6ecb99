package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Stream tracker notifications",
		Long:  "Listens on the tracker's dispatcher and prints notifications until interrupted (Ctrl+C).",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ch := tracker.Dispatcher().Listen()

			for {
				select {
				case <-ctx.Done():
					if errors.Is(ctx.Err(), context.Canceled) {
						return nil
					}
					return ctx.Err()
				case n, ok := <-ch:
					if !ok {
						return nil
					}
					fmt.Printf("%s wifi_state=%d num_saved=%d num_saved_subscriptions=%d\n",
						shortNotificationKind(n.Kind), int(n.WifiState), n.NumSaved, n.NumSavedSubscriptions)
				}
			}
		},
	}
}
