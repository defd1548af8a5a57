package pipeline

import (
	"context"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// LedgerSource supplies the manually recorded entries a statement is checked against.
type LedgerSource interface {
	ListEntries(ctx context.Context) ([]domain.LedgerEntry, error)
}

// StorageService fetches uploaded statements from object storage.
type StorageService interface {
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}
