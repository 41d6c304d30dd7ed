/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/inventory"
	"github.com/fc-integration/inventory/types"
)

var (
	showByName string
	newProduct inventory.NewProduct
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Look up and update single products",
}

var productShowCmd = &cobra.Command{
	Use:   "show [CODE]",
	Short: "Show the product carrying a barcode, or --name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		q := inventory.Query{Name: showByName}
		if len(args) == 1 {
			q.Code = args[0]
		}
		res, err := a.Resolver.Resolve(cmd.Context(), q)
		if err != nil {
			return errors.New(describe(err))
		}
		if res.NotFound {
			return errors.New(inventory.NotFoundMessage)
		}
		renderProduct(cmd.OutOrStdout(), *res.Product)
		return nil
	},
}

var productCreateCmd = &cobra.Command{
	Use:   "create CODE",
	Short: "Create a product for a scanned code (0 for none)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		p, err := a.Resolver.Create(cmd.Context(), args[0], newProduct)
		if err != nil {
			return errors.New(describe(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Produit créé.")
		renderProduct(cmd.OutOrStdout(), p)
		return nil
	},
}

var productAssociateCmd = &cobra.Command{
	Use:   "associate CODE PRODUCT_ID",
	Short: "Attach a scanned code to an existing product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignCode(cmd, args[1], args[0], true)
	},
}

var productAttachCodeCmd = &cobra.Command{
	Use:   "attach-code PRODUCT_ID CODE",
	Short: "Set the code of a product that has none",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignCode(cmd, args[0], args[1], false)
	},
}

var productAdjustCmd = &cobra.Command{
	Use:   "adjust PRODUCT_ID DELTA",
	Short: "Add to or remove from the quantity of a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return &apperr.ValidationError{Field: "delta", Message: "La quantité doit être un nombre entier."}
		}
		return mutate(cmd, args[0], func(s *inventory.StockService, p types.Product) (inventory.Mutation, error) {
			return s.Adjust(cmd.Context(), p, delta)
		})
	},
}

var productSetCmd = &cobra.Command{
	Use:   "set PRODUCT_ID QUANTITY",
	Short: "Set the quantity of a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, args[0], func(s *inventory.StockService, p types.Product) (inventory.Mutation, error) {
			return s.Set(cmd.Context(), p, args[1])
		})
	},
}

var productImageCmd = &cobra.Command{
	Use:   "image PRODUCT_ID FILE",
	Short: "Upload a product photo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		p, err := a.Catalog.UploadImage(cmd.Context(), id, f.Name(), f)
		if err != nil {
			return errors.New(describe(err))
		}
		imageURL := *p.ImageURL
		if strings.HasPrefix(imageURL, "/") {
			imageURL = cfg.API.BaseURL + imageURL
		}
		fmt.Fprintln(cmd.OutOrStdout(), imageURL)
		return nil
	},
}

func mutate(cmd *cobra.Command, rawID string, apply func(*inventory.StockService, types.Product) (inventory.Mutation, error)) error {
	id, err := parseProductID(rawID)
	if err != nil {
		return err
	}
	a, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	product, err := a.Catalog.Product(cmd.Context(), id)
	if err != nil {
		return errors.New(describe(err))
	}
	m, err := apply(a.Stock, product)
	var partial *apperr.PartialMutationError
	if errors.As(err, &partial) {
		fmt.Fprintln(cmd.ErrOrStderr(), describe(err))
		printMutation(cmd, m)
		return nil
	}
	if err != nil {
		return errors.New(describe(err))
	}
	printMutation(cmd, m)
	return nil
}

func printMutation(cmd *cobra.Command, m inventory.Mutation) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d -> %d)\n", m.Product.ProductName, m.Plan.Comment, m.Plan.Before, m.Plan.After)
}

func assignCode(cmd *cobra.Command, rawID, code string, associate bool) error {
	id, err := parseProductID(rawID)
	if err != nil {
		return err
	}
	a, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	product, err := a.Catalog.Product(cmd.Context(), id)
	if err != nil {
		return errors.New(describe(err))
	}
	if associate {
		product, err = a.Resolver.Associate(cmd.Context(), code, product)
	} else {
		product, err = a.Resolver.AttachCode(cmd.Context(), product, code)
	}
	if err != nil {
		return errors.New(describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Code %s associé à %s.\n", code, product.ProductName)
	return nil
}

func init() {
	rootCmd.AddCommand(productCmd)
	productCmd.AddCommand(productShowCmd, productCreateCmd, productAssociateCmd, productAttachCodeCmd,
		productAdjustCmd, productSetCmd, productImageCmd)

	productShowCmd.Flags().StringVarP(&showByName, "name", "n", "", "look up by product name instead of code")

	productCreateCmd.Flags().StringVarP(&newProduct.Name, "name", "n", "", "product name (required)")
	productCreateCmd.Flags().StringVarP(&newProduct.Brand, "brand", "b", "", "brand")
	productCreateCmd.Flags().StringVarP(&newProduct.Model, "model", "m", "", "model")
	productCreateCmd.Flags().StringVarP(&newProduct.ProductType, "type", "t", "", "product type")
	productCreateCmd.Flags().StringVarP(&newProduct.Quantity, "quantity", "q", "0", "initial quantity")
}
