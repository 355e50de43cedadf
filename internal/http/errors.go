package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nikolayk812/gamekeys/internal/domain"
)

const (
	codeUnauthenticated   = "unauthenticated"
	codeInvalidRequest    = "invalid_request"
	codeInvalidQuantity   = "invalid_quantity"
	codeEmptyCart         = "empty_cart"
	codeUnknownTitle      = "unknown_title"
	codeCartNotFound      = "cart_not_found"
	codeSaleNotFound      = "sale_not_found"
	codeKeySpaceExhausted = "key_space_exhausted"
	codeStorageFault      = "storage_fault"
	codeInternal          = "internal"
)

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

var errorMapping = []struct {
	err    error
	status int
	code   string
	msg    string
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthenticated, "authentication required"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity, "quantidade deve estar entre 1 e 99"},
	{domain.ErrEmptyCart, http.StatusConflict, codeEmptyCart, "carrinho vazio"},
	{domain.ErrUnknownTitle, http.StatusNotFound, codeUnknownTitle, "jogo não encontrado"},
	{domain.ErrCartNotFound, http.StatusNotFound, codeCartNotFound, "nenhum carrinho ativo"},
	{domain.ErrSaleNotFound, http.StatusNotFound, codeSaleNotFound, "venda não encontrada"},
	{domain.ErrKeySpaceExhausted, http.StatusInternalServerError, codeKeySpaceExhausted, "não foi possível gerar chaves de ativação"},
	{domain.ErrStorageFault, http.StatusServiceUnavailable, codeStorageFault, "serviço indisponível, tente novamente"},
}

// statusFor maps a service error to its HTTP status, code and client message.
// Unclassified errors never leak their text.
func statusFor(err error) (int, string, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.msg
		}
	}
	return http.StatusInternalServerError, codeInternal, "erro interno"
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Message: message, Code: code})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
