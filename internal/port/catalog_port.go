package port

import (
	"context"

	"github.com/nikolayk812/gamekeys/internal/domain"
)

// TitleCatalog returns domain.ErrUnknownTitle when the title does not exist.
type TitleCatalog interface {
	GetTitle(ctx context.Context, titleID int64) (domain.Title, error)
}
