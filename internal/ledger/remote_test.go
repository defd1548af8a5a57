package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/statement-recon/internal/domain"
)

func TestEntryFromRow(t *testing.T) {
	e := entryFromRow(transactionRow{
		TransactionID:   "tx-1",
		TransactionDate: civil.Date{Year: 2025, Month: time.January, Day: 3},
		Amount:          big.NewRat(-450, 100),
		RawDescription:  "COFFEE SHOP",
		CategoryName:    bigquery.NullString{StringVal: "Food", Valid: true},
	})
	assert.Equal(t, domain.LedgerEntry{ID: "tx-1", Date: "2025-01-03", Description: "COFFEE SHOP", Amount: -4.5, Type: "expense", Category: "Food"}, e)

	e = entryFromRow(transactionRow{TransactionDate: civil.Date{Year: 2025, Month: time.January, Day: 4}})
	assert.Equal(t, 0.0, e.Amount)
	assert.Equal(t, "income", e.Type)
	assert.Empty(t, e.Category)
}

func TestBigQuerySource_Query(t *testing.T) {
	s := &BigQuerySource{ProjectID: "proj", DatasetID: "finance"}
	assert.Contains(t, s.query(), "`proj.finance.transactions`")
}

// MockNotionService is a mock implementation of NotionService for testing.
type MockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	DeletePageFunc    func(ctx context.Context, pageID string) error
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return m.CreatePageFunc(ctx, databaseID, properties)
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return m.UpdatePageFunc(ctx, pageID, properties)
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return m.QueryDatabaseFunc(ctx, databaseID, req)
}

func (m *MockNotionService) DeletePage(ctx context.Context, pageID string) error {
	return m.DeletePageFunc(ctx, pageID)
}

func notionPage(id, date, desc string, amount float64, typ string) notionapi.Page {
	props := notionapi.Properties{
		"Description": &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: desc}}},
		"Amount":      &notionapi.NumberProperty{Number: amount},
	}
	if date != "" {
		tm, _ := time.Parse("2006-01-02", date)
		d := notionapi.Date(tm)
		props["Date"] = &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
	}
	if typ != "" {
		props["Type"] = &notionapi.SelectProperty{Select: notionapi.Option{Name: typ}}
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

func TestNotionStore_ListEntriesPaginates(t *testing.T) {
	var cursors []notionapi.Cursor
	archived := notionPage("p4", "2025-01-05", "Old", -1, "expense")
	archived.Archived = true

	svc := &MockNotionService{
		QueryDatabaseFunc: func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			assert.Equal(t, "db-1", databaseID)
			cursors = append(cursors, req.StartCursor)
			if req.StartCursor == "" {
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{notionPage("p1", "2025-01-03", "Coffee", -4.5, "expense"), notionPage("p2", "", "No date", 1, "")},
					HasMore:    true,
					NextCursor: "next",
				}, nil
			}
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{notionPage("p3", "2025-01-04", "Refund", 12, ""), archived},
			}, nil
		},
	}

	entries, err := NewNotionStore(svc, "db-1").ListEntries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []notionapi.Cursor{"", "next"}, cursors)
	assert.Equal(t, []domain.LedgerEntry{
		{ID: "p1", Date: "2025-01-03", Description: "Coffee", Amount: -4.5, Type: "expense"},
		{ID: "p3", Date: "2025-01-04", Description: "Refund", Amount: 12, Type: "income"},
	}, entries)
}

func TestNotionStore_AddEntry(t *testing.T) {
	var got notionapi.Properties
	svc := &MockNotionService{
		CreatePageFunc: func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
			got = properties
			return &notionapi.Page{ID: "new-page"}, nil
		},
	}
	s := NewNotionStore(svc, "db-1")
	s.now = func() time.Time { return fixedNow }

	e, err := s.AddEntry(context.Background(), domain.LedgerEntry{Date: "03-01-2025", Description: "Coffee", Amount: -4.5, Type: "expense"})
	require.NoError(t, err)
	assert.Equal(t, "new-page", e.ID)
	assert.Equal(t, "2025-01-03", e.Date)

	require.Contains(t, got, "Date")
	start := got["Date"].(notionapi.DateProperty).Date.Start
	assert.Equal(t, "2025-01-03", time.Time(*start).Format("2006-01-02"))
	assert.Equal(t, -4.5, got["Amount"].(notionapi.NumberProperty).Number)
	assert.NotContains(t, got, "Category")

	_, err = s.AddEntry(context.Background(), domain.LedgerEntry{Date: "2030-01-01", Amount: 1, Type: "income"})
	assert.ErrorIs(t, err, ErrFutureDate)
}

func TestNotionStore_DeleteAndErrors(t *testing.T) {
	var deleted string
	svc := &MockNotionService{
		DeletePageFunc: func(ctx context.Context, pageID string) error {
			deleted = pageID
			return nil
		},
		QueryDatabaseFunc: func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return nil, errors.New("unauthorized")
		},
	}
	s := NewNotionStore(svc, "db-1")

	require.NoError(t, s.DeleteEntry(context.Background(), "p1"))
	assert.Equal(t, "p1", deleted)
	assert.ErrorIs(t, s.DeleteEntry(context.Background(), ""), ErrInvalidID)

	_, err := s.ListEntries(context.Background())
	assert.ErrorContains(t, err, "unauthorized")
}
