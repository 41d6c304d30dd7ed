/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fc-integration/inventory/internal/app"
	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/inventory"
	"github.com/fc-integration/inventory/internal/scanner"
	"github.com/fc-integration/inventory/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan barcodes and update stock interactively",
	Long: `Reads one barcode per line (a USB scanner types the code and Enter).
A known code shows the product and asks for a quantity change: +N, -N or =N.
An unknown code offers to create a product or to associate the code with an
existing one. Enter 0 to create a product without a barcode. Type exit to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		src, err := scanner.NewLineSource(scanner.LineConfig{
			HistoryFile: filepath.Join(cfg.Session.Dir, "scan_history"),
		})
		if err != nil {
			return err
		}
		defer src.Close()

		flow := &scanFlow{app: a, in: src, out: cmd.OutOrStdout()}
		return scanner.Run(cmd.Context(), src, scanner.NewGate(), flow.handle)
	},
}

// scanFlow handles one accepted code at a time.
type scanFlow struct {
	app *app.App
	in  prompter
	out io.Writer
}

// handle only returns an error that should end the loop. Everything else
// is reported and the next code is awaited.
func (f *scanFlow) handle(ctx context.Context, code string) error {
	err := f.process(ctx, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrSessionExpired), errors.Is(err, scanner.ErrClosed):
		return err
	default:
		fmt.Fprintln(f.out, describe(err))
		return nil
	}
}

func (f *scanFlow) process(ctx context.Context, code string) error {
	if code == inventory.NoCode {
		return f.create(ctx, code)
	}
	res, err := f.app.Resolver.Resolve(ctx, inventory.Query{Code: code})
	if err != nil {
		return err
	}
	if !res.NotFound {
		renderProduct(f.out, *res.Product)
		return f.updateQuantity(ctx, *res.Product)
	}

	fmt.Fprintf(f.out, "%s (%s)\n", inventory.NotFoundMessage, code)
	choice, err := f.in.Ask(ctx, "[c]réer, [a]ssocier ou [i]gnorer: ")
	if err != nil {
		return err
	}
	switch strings.ToLower(choice) {
	case "c", "create", "créer", "creer":
		return f.create(ctx, code)
	case "a", "associate", "associer":
		return f.associate(ctx, code)
	}
	return nil
}

func (f *scanFlow) updateQuantity(ctx context.Context, product types.Product) error {
	answer, err := f.in.Ask(ctx, "Quantité (+N, -N, =N, vide pour passer): ")
	if err != nil || answer == "" {
		return err
	}

	var m inventory.Mutation
	switch answer[0] {
	case '=':
		m, err = f.app.Stock.Set(ctx, product, strings.TrimSpace(answer[1:]))
	default:
		delta, perr := parseDelta(answer)
		if perr != nil {
			return perr
		}
		m, err = f.app.Stock.Adjust(ctx, product, delta)
	}
	var partial *apperr.PartialMutationError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	if partial != nil {
		fmt.Fprintln(f.out, describe(partial))
	}
	fmt.Fprintf(f.out, "%s (%d -> %d)\n", m.Plan.Comment, m.Plan.Before, m.Plan.After)
	return nil
}

func (f *scanFlow) create(ctx context.Context, code string) error {
	var in inventory.NewProduct
	fields := []struct {
		label string
		dst   *string
	}{
		{"Nom du produit", &in.Name},
		{"Marque", &in.Brand},
		{"Modèle", &in.Model},
		{"Type", &in.ProductType},
		{"Quantité", &in.Quantity},
	}
	for _, field := range fields {
		v, err := askDefault(ctx, f.in, field.label, "")
		if err != nil {
			return err
		}
		*field.dst = v
	}

	p, err := f.app.Resolver.Create(ctx, code, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.out, "Produit créé: %s (id %d)\n", p.ProductName, p.ID)
	return nil
}

// associate lists the products without a code, narrowed by a search, and
// attaches code to the one picked.
func (f *scanFlow) associate(ctx context.Context, code string) error {
	items, err := f.app.Catalog.AllStock(ctx)
	if err != nil {
		return err
	}
	search, err := f.in.Ask(ctx, "Rechercher (nom ou modèle): ")
	if err != nil {
		return err
	}
	candidates := make([]types.Product, 0, len(items))
	for _, p := range inventory.Filter(items, search) {
		if !p.HasCode() {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		fmt.Fprintln(f.out, "Aucun produit sans code ne correspond.")
		return nil
	}
	renderProducts(f.out, candidates)

	answer, err := f.in.Ask(ctx, "ID du produit: ")
	if err != nil || answer == "" {
		return err
	}
	id, err := parseProductID(answer)
	if err != nil {
		return err
	}
	for _, p := range candidates {
		if p.ID != id {
			continue
		}
		updated, err := f.app.Resolver.Associate(ctx, code, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(f.out, "Code %s associé à %s.\n", code, updated.ProductName)
		return nil
	}
	return &apperr.ValidationError{Field: "id", Message: fmt.Sprintf("product %d is not in the list", id)}
}

func parseDelta(raw string) (int, error) {
	delta, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &apperr.ValidationError{Field: "quantity", Message: "La quantité doit être un nombre entier."}
	}
	return delta, nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
