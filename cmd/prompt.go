/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/scanner"
)

// prompter is the part of the line reader the interactive forms use.
type prompter interface {
	Ask(ctx context.Context, prompt string) (string, error)
	Secret(ctx context.Context, prompt string) (string, error)
}

func newPrompter() (*scanner.LineSource, error) {
	return scanner.NewLineSource(scanner.LineConfig{Prompt: "> "})
}

// askDefault returns current when the answer is blank.
func askDefault(ctx context.Context, p prompter, label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	answer, err := p.Ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

func parseProductID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, &apperr.ValidationError{Field: "id", Message: fmt.Sprintf("invalid product id %q", arg)}
	}
	return id, nil
}

// describe turns a flow error into the line shown to the user.
func describe(err error) string {
	var (
		authErr    *apperr.AuthError
		validErr   *apperr.ValidationError
		partialErr *apperr.PartialMutationError
		reqErr     *apperr.RequestError
	)
	switch {
	case errors.Is(err, apperr.ErrSessionExpired):
		return "Session expirée, veuillez vous reconnecter (fcinv login)."
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &validErr):
		return validErr.Message
	case errors.As(err, &partialErr):
		return fmt.Sprintf("Quantité mise à jour (%d) mais le journal n'a pas été enregistré.", partialErr.Product.Quantity.Int())
	case errors.As(err, &reqErr) && reqErr.Message != "":
		return reqErr.Message
	default:
		return err.Error()
	}
}
