package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-fulfillment/internal/catalog"
)

// CatalogHandler exposes categories, products and inventory listings.
type CatalogHandler struct {
	Catalog      *catalog.Service
	DefaultLimit int
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Route("/category", func(r chi.Router) {
		r.Post("/", h.createCategory)
		r.Get("/", h.listCategories)
		r.Get("/{uuid}", h.getCategory)
		r.Put("/{uuid}", h.updateCategory)
		r.Delete("/{uuid}", h.deleteCategory)
	})
	r.Route("/product", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Get("/", h.listProducts)
		r.Get("/{uuid}", h.getProduct)
		r.Put("/{uuid}", h.updateProduct)
		r.Delete("/{uuid}", h.deleteProduct)
	})
	r.Get("/inventory", h.listInventory)
}

func readTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 3*time.Second)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r.URL.Query(), h.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := readTimeout(r)
	defer cancel()
	res, err := h.Catalog.ListCategories(ctx, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readTimeout(r)
	defer cancel()
	c, err := h.Catalog.GetCategory(ctx, chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), chi.URLParam(r, "uuid"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	st, err := h.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := productInput(fields)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// productInput splits the create body into product columns and the
// category/inventory extras.
func productInput(fields map[string]any) (catalog.ProductInput, error) {
	in := catalog.ProductInput{Fields: fields}

	cat, _ := fields["category_uuid"].(string)
	if cat == "" {
		return in, badRequest("category_uuid is required")
	}
	in.CategoryUUID = cat
	delete(fields, "category_uuid")

	if v, ok := fields["initial_quantity"]; ok {
		n, err := jsonInt(v)
		if err != nil {
			return in, badRequest("initial_quantity must be an integer")
		}
		in.InitialQuantity = n
		delete(fields, "initial_quantity")
	}
	return in, nil
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := listParams(q, h.DefaultLimit, "category_uuid")
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := readTimeout(r)
	defer cancel()
	res, err := h.Catalog.ListProducts(ctx, p, q.Get("category_uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readTimeout(r)
	defer cancel()
	p, err := h.Catalog.GetProduct(ctx, chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "uuid"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	st, err := h.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *CatalogHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r.URL.Query(), h.DefaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := readTimeout(r)
	defer cancel()
	res, err := h.Catalog.ListInventory(ctx, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
