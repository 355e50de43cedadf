package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nikolayk812/gamekeys/internal/domain"
	"github.com/nikolayk812/gamekeys/internal/service"
)

type cartDTO struct {
	ID    string        `json:"id"`
	Itens []cartItemDTO `json:"itens"`
}

type cartItemDTO struct {
	FkJogo     int64 `json:"fkJogo"`
	Quantidade int   `json:"quantidade"`
}

type cartResponse struct {
	Carrinho *cartDTO `json:"carrinho"`
	Message  string   `json:"message,omitempty"`
}

type saleDTO struct {
	ID         string        `json:"id"`
	ValorTotal json.Number   `json:"valorTotal"`
	DataVenda  time.Time     `json:"dataVenda"`
	Linhas     []saleLineDTO `json:"linhas"`
}

type saleLineDTO struct {
	JogoID        int64       `json:"jogoId"`
	PrecoUnitario json.Number `json:"precoUnitario"`
	ChaveAtivacao string      `json:"chaveAtivacao"`
}

type saleSummaryDTO struct {
	ID         string      `json:"id"`
	DataVenda  time.Time   `json:"dataVenda"`
	ValorTotal json.Number `json:"valorTotal"`
}

type libraryEntryDTO struct {
	JogoID        int64  `json:"jogoId"`
	Nome          string `json:"nome"`
	ChaveAtivacao string `json:"chaveAtivacao"`
	VendaID       string `json:"vendaId"`
}

// addItemRequest accepts every foreign key spelling clients send, bare or
// wrapped in "carrinho".
type addItemRequest struct {
	JogoID      *flexInt `json:"jogoId"`
	FkJogo      *flexInt `json:"fkJogo"`
	FkJogoSnake *flexInt `json:"fk_jogo"`
	JogoIDSnake *flexInt `json:"jogo_id"`
	Quantidade  *flexInt `json:"quantidade"`
}

// flexInt decodes a JSON number or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", data)
	}
	*f = flexInt(n)
	return nil
}

func decodeAddItem(body []byte) (titleID int64, quantity int, err error) {
	var wrapped struct {
		Carrinho json.RawMessage `json:"carrinho"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return 0, 0, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if len(wrapped.Carrinho) > 0 && !bytes.Equal(wrapped.Carrinho, []byte("null")) {
		body = wrapped.Carrinho
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return 0, 0, fmt.Errorf("json.Unmarshal: %w", err)
	}

	var id *flexInt
	for _, candidate := range []*flexInt{req.JogoID, req.FkJogo, req.FkJogoSnake, req.JogoIDSnake} {
		if candidate != nil {
			id = candidate
			break
		}
	}
	if id == nil {
		return 0, 0, fmt.Errorf("jogoId is missing")
	}

	quantity = 1
	if req.Quantidade != nil {
		if *req.Quantidade < 1 || *req.Quantidade > domain.MaxQuantityPerTitle {
			return 0, 0, fmt.Errorf("quantidade %d: %w", int64(*req.Quantidade), domain.ErrInvalidQuantity)
		}
		quantity = int(*req.Quantidade)
	}

	return int64(*id), quantity, nil
}

func mapCartToDTO(cart domain.Cart) *cartDTO {
	items := make([]cartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemDTO{FkJogo: item.TitleID, Quantidade: item.Quantity})
	}
	return &cartDTO{ID: cart.ID.String(), Itens: items}
}

func mapSaleToDTO(sale domain.Sale) saleDTO {
	lines := make([]saleLineDTO, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		lines = append(lines, saleLineDTO{
			JogoID:        line.TitleID,
			PrecoUnitario: amount(line.UnitPrice),
			ChaveAtivacao: line.ActivationKey.String(),
		})
	}

	return saleDTO{
		ID:         sale.ID.String(),
		ValorTotal: amount(sale.Total),
		DataVenda:  sale.CreatedAt,
		Linhas:     lines,
	}
}

func mapSaleToSummaryDTO(sale domain.Sale) saleSummaryDTO {
	return saleSummaryDTO{
		ID:         sale.ID.String(),
		DataVenda:  sale.CreatedAt,
		ValorTotal: amount(sale.Total),
	}
}

func mapLibraryEntryToDTO(entry service.LibraryEntry) libraryEntryDTO {
	return libraryEntryDTO{
		JogoID:        entry.Grant.TitleID,
		Nome:          entry.Title.Name,
		ChaveAtivacao: entry.Grant.ActivationKey.String(),
		VendaID:       entry.Grant.SaleID.String(),
	}
}

func amount(m domain.Money) json.Number {
	return json.Number(m.Amount.StringFixed(2))
}
