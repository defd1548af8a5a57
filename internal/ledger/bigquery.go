package ledger

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// DefaultBigQueryTable is the ledger table read by BigQuerySource.
const DefaultBigQueryTable = "transactions"

// transactionRow is the subset of the finance transactions table a ledger needs.
type transactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`
	TransactionDate civil.Date          `bigquery:"transaction_date"`
	Amount          *big.Rat            `bigquery:"amount"`
	RawDescription  string              `bigquery:"raw_description"`
	CategoryName    bigquery.NullString `bigquery:"category_name"`
}

// BigQuerySource reads ledger entries from a BigQuery transactions table.
type BigQuerySource struct {
	client    *bigquery.Client
	ProjectID string
	DatasetID string
	Table     string
}

// NewBigQuerySource creates a BigQuery client for projectID. Close must be called when done.
func NewBigQuerySource(ctx context.Context, projectID, datasetID string) (*BigQuerySource, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQuerySource: creating client: %w", err)
	}
	return &BigQuerySource{
		client:    client,
		ProjectID: projectID,
		DatasetID: datasetID,
		Table:     DefaultBigQueryTable,
	}, nil
}

// Close closes the BigQuery client connection.
func (s *BigQuerySource) Close() error {
	return s.client.Close()
}

// ListEntries implements Source.
func (s *BigQuerySource) ListEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	q := s.client.Query(s.query())
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: query read: %w", err)
	}

	entries := []domain.LedgerEntry{}
	for {
		var r transactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListEntries: iter next: %w", err)
		}
		entries = append(entries, entryFromRow(r))
	}
	return entries, nil
}

func (s *BigQuerySource) query() string {
	table := s.Table
	if table == "" {
		table = DefaultBigQueryTable
	}
	return fmt.Sprintf(`
		SELECT
			transaction_id,
			transaction_date,
			amount,
			raw_description,
			category_name
		FROM `+"`%s.%s.%s`"+`
		ORDER BY transaction_date, created_ts
	`, s.ProjectID, s.DatasetID, table)
}

// entryFromRow signs the type by the stored amount: negative is an expense.
func entryFromRow(r transactionRow) domain.LedgerEntry {
	var amount float64
	if r.Amount != nil {
		amount, _ = r.Amount.Float64()
	}
	e := domain.LedgerEntry{
		ID:          r.TransactionID,
		Date:        r.TransactionDate.String(),
		Description: r.RawDescription,
		Amount:      amount,
		Type:        TypeForAmount(amount),
	}
	if r.CategoryName.Valid {
		e.Category = r.CategoryName.StringVal
	}
	return e
}

var _ Source = (*BigQuerySource)(nil)
