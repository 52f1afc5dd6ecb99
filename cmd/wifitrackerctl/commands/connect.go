package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

// opTimeout bounds how long a connect/disconnect/forget command waits for
// the platform's asynchronous callback before giving up.
const opTimeout = 5 * time.Second

// runAndWait issues op against the tracker and blocks until its callback
// fires or opTimeout elapses, translating the async ConnectCallback
// pattern into a synchronous CLI command. A rate-limited connect request
// returns nil without ever invoking its callback, so runAndWait will
// wait out the full timeout in that case; there is no synchronous signal
// to distinguish "accepted" from "silently dropped".
func runAndWait(op func(ctx context.Context, cb wifitrack.ConnectCallback) error) error {
	ctx, cancel := context.WithTimeout(rootCtx, opTimeout)
	defer cancel()

	result := make(chan wifitrack.ConnectResult, 1)
	if err := op(ctx, func(r wifitrack.ConnectResult) { result <- r }); err != nil {
		return err
	}

	select {
	case r := <-result:
		return r.Err
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for platform callback: %w", ctx.Err())
	}
}

func connectCmd() *cobra.Command {
	var forced bool

	cmd := &cobra.Command{
		Use:   "connect <key>",
		Short: "Connect to a tracked entry by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key := args[0]
			if err := runAndWait(func(ctx context.Context, cb wifitrack.ConnectCallback) error {
				return tracker.Connect(ctx, key, forced, cb)
			}); err != nil {
				return fmt.Errorf("connect %q: %w", key, err)
			}
			fmt.Printf("Connected to %s.\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&forced, "forced", false, "bypass the auto-connect rate limiter")

	return cmd
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <key>",
		Short: "Disconnect from a tracked entry by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key := args[0]
			if err := runAndWait(func(ctx context.Context, cb wifitrack.ConnectCallback) error {
				return tracker.Disconnect(ctx, key, cb)
			}); err != nil {
				return fmt.Errorf("disconnect %q: %w", key, err)
			}
			fmt.Printf("Disconnected from %s.\n", key)
			return nil
		},
	}
}

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <key>",
		Short: "Forget a saved entry by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key := args[0]
			if err := runAndWait(func(ctx context.Context, cb wifitrack.ConnectCallback) error {
				return tracker.Forget(ctx, key, cb)
			}); err != nil {
				return fmt.Errorf("forget %q: %w", key, err)
			}
			fmt.Printf("Forgot %s.\n", key)
			return nil
		},
	}
}
