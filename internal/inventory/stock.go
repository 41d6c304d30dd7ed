package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/types"
)

// Plan is a computed quantity change: Delta is what the server receives,
// Before/After are what the audit log records.
type Plan struct {
	Delta   int
	Before  int
	After   int
	Action  types.LogAction
	Comment string
}

// PlanAdjust computes a relative change. The result is clamped at 0 but
// the delta is kept as requested.
func PlanAdjust(current, delta int) Plan {
	after := current + delta
	if after < 0 {
		after = 0
	}
	verb := "diminuée"
	if delta > 0 {
		verb = "augmentée"
	}
	return Plan{
		Delta:   delta,
		Before:  current,
		After:   after,
		Action:  classify(delta),
		Comment: fmt.Sprintf("Quantité %s de %d", verb, abs(delta)),
	}
}

// PlanSet computes the change that brings current to the typed target.
func PlanSet(current int, target string) (Plan, error) {
	value, err := strconv.Atoi(strings.TrimSpace(target))
	if err != nil {
		return Plan{}, &apperr.ValidationError{Field: "quantity", Message: "La quantité doit être un nombre entier."}
	}
	if value < 0 {
		return Plan{}, &apperr.ValidationError{Field: "quantity", Message: "La quantité doit être un nombre positif."}
	}
	delta := value - current
	return Plan{
		Delta:   delta,
		Before:  current,
		After:   value,
		Action:  classify(delta),
		Comment: fmt.Sprintf("Quantité mise à jour manuellement de %d à %d", current, value),
	}, nil
}

// classify maps a signed delta to a log action. Zero counts as a removal.
func classify(delta int) types.LogAction {
	if delta > 0 {
		return types.ActionAdd
	}
	return types.ActionRemove
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Mutation is the result of an applied plan.
type Mutation struct {
	Product types.Product
	Plan    Plan
	Log     types.AppendLogRequest
}

// StockService applies quantity changes as two calls: the update, then the
// audit log append. The pair is not atomic.
type StockService struct {
	transport Transport
	identity  Identity
	log       zerolog.Logger
}

func NewStockService(transport Transport, identity Identity, log zerolog.Logger) *StockService {
	return &StockService{
		transport: transport,
		identity:  identity,
		log:       log.With().Str("component", "stock").Logger(),
	}
}

// Adjust applies a signed delta to product.
func (s *StockService) Adjust(ctx context.Context, product types.Product, delta int) (Mutation, error) {
	return s.apply(ctx, product, PlanAdjust(product.Quantity.Int(), delta))
}

// Set brings product to the typed target quantity.
func (s *StockService) Set(ctx context.Context, product types.Product, target string) (Mutation, error) {
	plan, err := PlanSet(product.Quantity.Int(), target)
	if err != nil {
		return Mutation{}, err
	}
	return s.apply(ctx, product, plan)
}

func (s *StockService) apply(ctx context.Context, product types.Product, plan Plan) (Mutation, error) {
	err := s.transport.Post(ctx, "/update-product", types.UpdateQuantityRequest{
		ID:       product.ID,
		Quantity: plan.Delta,
	}, nil)
	if err != nil {
		s.log.Error().Err(err).Int("id", product.ID).Int("delta", plan.Delta).Msg("quantity update failed")
		return Mutation{}, err
	}

	updated := product
	updated.Quantity = types.Quantity(plan.After)

	entry := types.AppendLogRequest{
		StockID:         ptr(product.ID),
		UserName:        s.userName(),
		ItemDescription: ptr(product.ProductName),
		Action:          plan.Action,
		QuantityBefore:  ptr(plan.Before),
		QuantityAfter:   ptr(plan.After),
		Commentaire:     ptr(plan.Comment),
	}
	mutation := Mutation{Product: updated, Plan: plan, Log: entry}

	if err := s.transport.Post(ctx, "/update-log", entry, nil); err != nil {
		s.log.Warn().Err(err).
			Int("id", product.ID).
			Int("before", plan.Before).
			Int("after", plan.After).
			Msg("quantity updated without audit log entry")
		return mutation, &apperr.PartialMutationError{Product: updated, Err: err}
	}

	s.log.Info().
		Int("id", product.ID).
		Str("action", string(plan.Action)).
		Int("before", plan.Before).
		Int("after", plan.After).
		Msg("stock updated")
	return mutation, nil
}

func (s *StockService) userName() *string {
	if s.identity == nil {
		return nil
	}
	sess, ok := s.identity.Current()
	if !ok || sess.User.Name == "" {
		return nil
	}
	return ptr(sess.User.Name)
}
