/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fc-integration/inventory/internal/mq"
	"github.com/fc-integration/inventory/types"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow stock events published by the server",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print stock events as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch cfg.MQ.Backend {
		case "":
			return errors.New("MQ_BACKEND is not set")
		case "memory":
			return errors.New("the memory broker only delivers inside the server process")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open message broker: %w", err)
		}
		defer broker.Close()

		out := cmd.OutOrStdout()
		events := mq.NewStockEvents(broker, cfg.MQ.Channel)
		err = events.Subscribe(ctx, func(ctx context.Context, e types.StockEvent) error {
			fmt.Fprintf(out, "%s %-6s #%d %s %d -> %d\n",
				e.OccurredAt.Local().Format("15:04:05"), e.Action, e.ProductID, e.ProductName, e.QuantityBefore, e.QuantityAfter)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
