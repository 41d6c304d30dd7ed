package scanner

import (
	"context"
	"errors"
	"strings"
)

// Handler processes one accepted code. Returning an error stops the loop.
type Handler func(ctx context.Context, code string) error

// Run reads from src until it closes, the context ends, the user types
// exit, or handle fails. The gate is armed before each read and disarmed
// by the accepted code, so a handler never sees two codes at once.
func Run(ctx context.Context, src Source, gate *Gate, handle Handler) error {
	for {
		gate.Arm()
		line, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		switch strings.ToLower(line) {
		case "exit", "quit", "\\q":
			return nil
		}
		code, ok := gate.Accept(line)
		if !ok {
			continue
		}
		if err := handle(ctx, code); err != nil {
			return err
		}
	}
}
