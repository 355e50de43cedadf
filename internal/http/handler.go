package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/service"
)

const maxBodyBytes = 1 << 16

type CartService interface {
	GetActiveCart(ctx context.Context, ownerID string) (domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, titleID int64, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID string, titleID int64) (domain.Cart, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, ownerID, idempotencyKey string) (domain.Sale, error)
}

type LibraryService interface {
	Library(ctx context.Context, ownerID string) ([]service.LibraryEntry, error)
	Sales(ctx context.Context, ownerID string) ([]domain.Sale, error)
	Sale(ctx context.Context, ownerID string, saleID uuid.UUID) (domain.Sale, error)
}

type Handler struct {
	log      *slog.Logger
	carts    CartService
	checkout CheckoutService
	library  LibraryService
}

func NewHandler(log *slog.Logger, carts CartService, checkout CheckoutService, library LibraryService) *Handler {
	return &Handler{
		log:      log,
		carts:    carts,
		checkout: checkout,
		library:  library,
	}
}

// Routes expects to run behind Authenticate.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/carrinho/ativo", h.getActiveCart)
	r.Post("/carrinho/add", h.addItem)
	r.Delete("/carrinho/{jogoId}", h.removeItem)

	r.Post("/vendas/checkout", h.checkoutCart)
	r.Get("/vendas", h.listSales)
	r.Get("/vendas/{id}", h.getSale)

	r.Get("/perfil/biblioteca", h.getLibrary)

	return r
}

func (h *Handler) getActiveCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetActiveCart(r.Context(), userFromContext(r.Context()))
	if errors.Is(err, domain.ErrCartNotFound) {
		respondJSON(w, http.StatusOK, cartResponse{Message: "nenhum carrinho ativo"})
		return
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse{Carrinho: mapCartToDTO(cart)})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "corpo inválido")
		return
	}

	titleID, quantity, err := decodeAddItem(body)
	if errors.Is(err, domain.ErrInvalidQuantity) {
		h.respondServiceError(w, r, err)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userFromContext(r.Context()), titleID, quantity)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse{Carrinho: mapCartToDTO(cart)})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	titleID, err := strconv.ParseInt(chi.URLParam(r, "jogoId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "jogoId inválido")
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), userFromContext(r.Context()), titleID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse{Carrinho: mapCartToDTO(cart)})
}

// checkoutCart ignores any cartId in the body, the caller's active cart is always the one sold.
func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	sale, err := h.checkout.Checkout(r.Context(), userFromContext(r.Context()), r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapSaleToDTO(sale))
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.library.Sales(r.Context(), userFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	out := make([]saleSummaryDTO, 0, len(sales))
	for _, sale := range sales {
		out = append(out, mapSaleToSummaryDTO(sale))
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, domain.ErrSaleNotFound)
		return
	}

	sale, err := h.library.Sale(r.Context(), userFromContext(r.Context()), saleID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapSaleToDTO(sale))
}

func (h *Handler) getLibrary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.library.Library(r.Context(), userFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	out := make([]libraryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, mapLibraryEntryToDTO(entry))
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}

	respondError(w, status, code, msg)
}
