/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fc-integration/inventory/types"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func renderProducts(w io.Writer, items []types.Product) {
	t := newTable(w, table.Row{"ID", "Code", "Produit", "Marque", "Modèle", "Type", "Quantité"})
	total := 0
	for _, p := range items {
		t.AppendRow(table.Row{p.ID, orDash(p.Code), p.ProductName, p.Brand, p.Model, p.ProductType, p.Quantity.Int()})
		total += p.Quantity.Int()
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d produits", len(items)), "", "", "", total})
	t.Render()
}

func renderProduct(w io.Writer, p types.Product) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Code", orDash(p.Code)},
		{"Produit", p.ProductName},
		{"Marque", p.Brand},
		{"Modèle", p.Model},
		{"Type", p.ProductType},
		{"Quantité", p.Quantity.Int()},
		{"Description", orDash(p.Description)},
		{"Image", orDash(p.ImageURL)},
	})
	t.Render()
}

func renderLogs(w io.Writer, entries []types.LogEntry) {
	t := newTable(w, table.Row{"Date", "Action", "Produit", "Avant", "Après", "Commentaire"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.LogTime.Local().Format("2006-01-02 15:04"),
			e.Action,
			orDash(e.ItemDescription),
			intOrDash(e.QuantityBefore),
			intOrDash(e.QuantityAfter),
			orDash(e.Commentaire),
		})
	}
	t.Render()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
