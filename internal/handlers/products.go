package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/internal/services"
	"github.com/fc-integration/inventory/internal/storage"
	"github.com/fc-integration/inventory/internal/store"
	"github.com/fc-integration/inventory/types"
)

const (
	maxImageBytes   = 10 << 20
	formFieldImage  = "image"
	productNotFound = "Produit non trouvé."
)

// ProductHandler provides HTTP handlers for the stock table.
type ProductHandler struct {
	products *services.ProductService
	users    *services.UserService
	log      zerolog.Logger
}

func NewProductHandler(products *services.ProductService, users *services.UserService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{products: products, users: users, log: log}
}

// ProductRouter registers product routes. Every route but the image
// download requires auth.
func ProductRouter(r chi.Router, handler *ProductHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/images/*", handler.Image)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/product-details", handler.Details)
		r.Post("/new-product", handler.Create)
		r.Post("/assign-upc", handler.AssignCode)
		r.Post("/init-upc", handler.AssignCode)
		r.Post("/update-product", handler.UpdateQuantity)
		r.Post("/product-image", handler.UploadImage)
		r.Get("/display-stock", handler.Stock)
		r.Get("/display-brands", handler.Brands)
		r.Get("/display-types", handler.Types)
		r.Get("/display-models", handler.Models)
		r.Get("/display-product-name", handler.ProductName)
	})
}

// Details looks a product up by ?barCode= or ?productName=.
func (h *ProductHandler) Details(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	product, err := h.products.Lookup(r.Context(), q.Get("barCode"), q.Get("productName"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, productNotFound)
			return
		}
		writeServiceError(w, err, "failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.NewProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.products.Create(r.Context(), req, h.actor(r))
	if err != nil {
		writeServiceError(w, err, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// AssignCode serves both /assign-upc and /init-upc.
func (h *ProductHandler) AssignCode(w http.ResponseWriter, r *http.Request) {
	var req types.AssignCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.products.AssignCode(r.Context(), req.ID, req.UPCCode)
	if err != nil {
		writeServiceError(w, err, "failed to assign code")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdateQuantity applies the signed delta in the quantity field.
func (h *ProductHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.products.AdjustQuantity(r.Context(), req.ID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, "failed to update quantity")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, 0); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to read upload")
			return
		}
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "uploaded file is not an image")
		return
	}

	updated, err := h.products.UploadImage(r.Context(), id, header.Filename, file, header.Size, contentType)
	if err != nil {
		h.log.Error().Err(err).Int("id", id).Msg("image upload failed")
		writeServiceError(w, err, "failed to store image")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Image streams a stored product image by key.
func (h *ProductHandler) Image(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rc, err := h.products.OpenImage(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		writeServiceError(w, err, "failed to read image")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("image stream interrupted")
	}
}

func (h *ProductHandler) Stock(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list stock")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProductHandler) Brands(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.Brands(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProductHandler) Types(w http.ResponseWriter, r *http.Request) {
	brand := strings.TrimSpace(r.URL.Query().Get("brand"))
	if brand == "" {
		writeError(w, http.StatusBadRequest, "brand is required")
		return
	}
	items, err := h.products.Types(r.Context(), brand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list types")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProductHandler) Models(w http.ResponseWriter, r *http.Request) {
	brand := strings.TrimSpace(r.URL.Query().Get("brand"))
	productType := strings.TrimSpace(r.URL.Query().Get("type"))
	if brand == "" || productType == "" {
		writeError(w, http.StatusBadRequest, "brand and type are required")
		return
	}
	items, err := h.products.Models(r.Context(), brand, productType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ProductHandler) ProductName(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, types.ProductNameResponse{ProductName: product.ProductName})
}

// actor is the display name of the caller, or "" if it cannot be loaded.
func (h *ProductHandler) actor(r *http.Request) string {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		return ""
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		return ""
	}
	return user.Name
}
