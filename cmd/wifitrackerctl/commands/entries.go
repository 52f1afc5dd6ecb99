package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Inspect the tracker's entry views",
	}

	cmd.AddCommand(entriesPickerCmd())
	cmd.AddCommand(entriesSavedCmd())
	cmd.AddCommand(entriesSubscriptionsCmd())

	return cmd
}

func entriesPickerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "picker",
		Short: "List entries in picker order (-level, title)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := formatEntries(tracker.Views().Picker(), outputFormat)
			if err != nil {
				return fmt.Errorf("format entries: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}
}

func entriesSavedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List saved standard networks",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := formatEntries(tracker.Views().SavedNetworks(), outputFormat)
			if err != nil {
				return fmt.Errorf("format entries: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}
}

func entriesSubscriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "List saved Passpoint subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := formatEntries(tracker.Views().SavedSubscriptions(), outputFormat)
			if err != nil {
				return fmt.Errorf("format entries: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}
}
