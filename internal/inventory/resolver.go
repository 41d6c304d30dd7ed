package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/nav"
	"github.com/fc-integration/inventory/types"
)

// NotFoundMessage is what the API answers for an unknown code or name.
const NotFoundMessage = "Produit non trouvé."

// NoCode is entered in place of a scan when the product has no barcode.
const NoCode = "0"

// Query selects a product by code, or by name when no code was scanned.
type Query struct {
	Code string
	Name string
}

// Resolution is the outcome of a lookup. When NotFound is set the caller
// offers Create or Associate for Code.
type Resolution struct {
	Product  *types.Product
	NotFound bool
	Code     string
}

// NewProduct is the creation form as typed by the user.
type NewProduct struct {
	Name        string
	Brand       string
	Model       string
	ProductType string
	Quantity    string
}

// Resolver turns scanned codes into products and handles the two recovery
// paths when nothing matches.
type Resolver struct {
	transport Transport
	nav       nav.Navigator
	log       zerolog.Logger
}

func NewResolver(transport Transport, navigator nav.Navigator, log zerolog.Logger) *Resolver {
	return &Resolver{
		transport: transport,
		nav:       navigator,
		log:       log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve looks the product up by code when one is given, by name
// otherwise.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Resolution, error) {
	q.Code = strings.TrimSpace(q.Code)
	q.Name = strings.TrimSpace(q.Name)

	query := url.Values{}
	switch {
	case q.Code != "":
		query.Set("barCode", q.Code)
	case q.Name != "":
		query.Set("productName", q.Name)
	default:
		return Resolution{}, &apperr.ValidationError{Field: "code", Message: "a code or a product name is required"}
	}

	var raw json.RawMessage
	if err := r.transport.Get(ctx, "/product-details", query, &raw); err != nil {
		if isNotFound(err) {
			r.log.Debug().Str("code", q.Code).Str("name", q.Name).Msg("product not found")
			return Resolution{NotFound: true, Code: q.Code}, nil
		}
		return Resolution{}, err
	}

	product, ok, err := decodeProduct(raw)
	if err != nil {
		return Resolution{}, &apperr.RequestError{Method: http.MethodGet, Path: "/product-details", Err: err}
	}
	if !ok {
		return Resolution{NotFound: true, Code: q.Code}, nil
	}
	return Resolution{Product: &product, Code: q.Code}, nil
}

// Create validates the form and submits a new product carrying code. The
// flow then exits to the stock listing.
func (r *Resolver) Create(ctx context.Context, code string, in NewProduct) (types.Product, error) {
	req, err := validateNewProduct(code, in)
	if err != nil {
		return types.Product{}, err
	}

	var created types.Product
	if err := r.transport.Post(ctx, "/new-product", req, &created); err != nil {
		r.log.Error().Err(err).Str("code", code).Msg("product creation failed")
		return types.Product{}, err
	}
	if created.ID == 0 {
		// The API may answer without a body; report what was submitted.
		created = types.Product{
			ProductName: req.ProductName,
			Brand:       req.Brand,
			Model:       req.Model,
			ProductType: req.ProductType,
			Quantity:    types.Quantity(req.Quantity),
		}
		if req.UPCCode != "" {
			created.Code = ptr(req.UPCCode)
		}
	}

	r.log.Info().Int("id", created.ID).Str("code", req.UPCCode).Msg("product created")
	r.navigate(func(n nav.Navigator) { n.Push(nav.RouteStock) })
	return created, nil
}

// Associate attaches the scanned code to a product picked from the stock
// listing, then returns to the detail view.
func (r *Resolver) Associate(ctx context.Context, code string, product types.Product) (types.Product, error) {
	updated, err := r.assign(ctx, "/assign-upc", code, product)
	if err != nil {
		return types.Product{}, err
	}
	r.navigate(func(n nav.Navigator) { n.Replace(nav.RouteProductDetails) })
	return updated, nil
}

// AttachCode sets the code of a product shown in the detail view that
// has none yet.
func (r *Resolver) AttachCode(ctx context.Context, product types.Product, code string) (types.Product, error) {
	return r.assign(ctx, "/init-upc", code, product)
}

func (r *Resolver) assign(ctx context.Context, path, code string, product types.Product) (types.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" || code == NoCode {
		return types.Product{}, &apperr.ValidationError{Field: "code", Message: "a scanned code is required"}
	}
	if product.ID == 0 {
		return types.Product{}, &apperr.ValidationError{Field: "id", Message: "a product must be selected"}
	}
	if product.HasCode() {
		return types.Product{}, &apperr.ValidationError{Field: "code", Message: "product already has a UPC code"}
	}

	err := r.transport.Post(ctx, path, types.AssignCodeRequest{ID: product.ID, UPCCode: code}, nil)
	if err != nil {
		r.log.Error().Err(err).Int("id", product.ID).Str("code", code).Msg("code assignment failed")
		return types.Product{}, err
	}

	product.Code = ptr(code)
	r.log.Info().Int("id", product.ID).Str("code", code).Msg("code attached")
	return product, nil
}

func (r *Resolver) navigate(fn func(nav.Navigator)) {
	if r.nav != nil {
		fn(r.nav)
	}
}

func validateNewProduct(code string, in NewProduct) (types.NewProductRequest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return types.NewProductRequest{}, &apperr.ValidationError{Field: "product_name", Message: "Le nom du produit est obligatoire."}
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(in.Quantity))
	if err != nil || quantity < 0 {
		return types.NewProductRequest{}, &apperr.ValidationError{Field: "quantity", Message: "La quantité doit être un nombre positif."}
	}

	code = strings.TrimSpace(code)
	if code == NoCode {
		code = ""
	}

	return types.NewProductRequest{
		ProductName: name,
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		ProductType: strings.TrimSpace(in.ProductType),
		Quantity:    quantity,
		UPCCode:     code,
	}, nil
}

func isNotFound(err error) bool {
	var reqErr *apperr.RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	if errors.Is(err, apperr.ErrSessionExpired) {
		return false
	}
	return reqErr.Status == http.StatusNotFound || reqErr.Message == NotFoundMessage
}

// decodeProduct reports ok=false for an empty or id-less body.
func decodeProduct(raw json.RawMessage) (types.Product, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return types.Product{}, false, nil
	}
	var product types.Product
	if err := json.Unmarshal(trimmed, &product); err != nil {
		return types.Product{}, false, err
	}
	if product.ID == 0 {
		return types.Product{}, false, nil
	}
	return product, true, nil
}
