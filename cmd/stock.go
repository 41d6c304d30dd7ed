/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fc-integration/inventory/internal/inventory"
)

var stockFilter string

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Browse stock by brand and type",
}

var stockBrandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "List brands with their product count and total quantity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		brands, err := a.Catalog.Brands(cmd.Context())
		if err != nil {
			return errors.New(describe(err))
		}
		t := newTable(cmd.OutOrStdout(), table.Row{"Marque", "Produits", "Quantité"})
		for _, b := range brands {
			t.AppendRow(table.Row{b.Brand, b.ProductCount, b.TotalQuantity})
		}
		t.Render()
		return nil
	},
}

var stockTypesCmd = &cobra.Command{
	Use:   "types BRAND",
	Short: "List product types of a brand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		kinds, err := a.Catalog.Types(cmd.Context(), args[0])
		if err != nil {
			return errors.New(describe(err))
		}
		t := newTable(cmd.OutOrStdout(), table.Row{"Type", "Produits", "Quantité"})
		for _, k := range kinds {
			t.AppendRow(table.Row{k.ProductType, k.ProductCount, k.TotalQuantity})
		}
		t.Render()
		return nil
	},
}

var stockModelsCmd = &cobra.Command{
	Use:   "models BRAND TYPE",
	Short: "List the products of a brand and type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		items, err := a.Catalog.Models(cmd.Context(), args[0], args[1])
		if err != nil {
			return errors.New(describe(err))
		}
		renderProducts(cmd.OutOrStdout(), inventory.Filter(items, stockFilter))
		return nil
	},
}

var stockAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every product",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		items, err := a.Catalog.AllStock(cmd.Context())
		if err != nil {
			return errors.New(describe(err))
		}
		renderProducts(cmd.OutOrStdout(), inventory.Filter(items, stockFilter))
		return nil
	},
}

var logsUser string

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the latest audit entries of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		user := logsUser
		if user == "" {
			sess, _ := a.Session.Current()
			user = sess.User.Name
		}
		entries, err := a.Catalog.LatestLogs(cmd.Context(), user)
		if err != nil {
			return errors.New(describe(err))
		}
		renderLogs(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stockCmd, logsCmd)
	stockCmd.AddCommand(stockBrandsCmd, stockTypesCmd, stockModelsCmd, stockAllCmd)

	stockCmd.PersistentFlags().StringVarP(&stockFilter, "filter", "f", "", "keep products whose name or model contains this text")
	logsCmd.Flags().StringVarP(&logsUser, "user", "u", "", "user name (defaults to the logged in user)")
}
