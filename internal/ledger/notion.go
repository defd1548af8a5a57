package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// Property names of the Notion ledger database.
const (
	notionDescription = "Description"
	notionDate        = "Date"
	notionAmount      = "Amount"
	notionType        = "Type"
	notionCategory    = "Category"
)

// NotionService defines the subset of the Notion API the ledger uses.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	DeletePage(ctx context.Context, pageID string) error
}

// NotionClient is the concrete implementation of NotionService using the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// UpdatePage updates an existing Notion page with the given properties.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: %w", err)
	}
	return page, nil
}

// QueryDatabase queries a Notion database.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}

// DeletePage archives a Notion page.
func (n *NotionClient) DeletePage(ctx context.Context, pageID string) error {
	_, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived: true,
	})
	if err != nil {
		return fmt.Errorf("DeletePage: %w", err)
	}
	return nil
}

// NotionStore keeps ledger entries as pages of a Notion database with
// Description (title), Date, Amount (number), Type and Category (select) properties.
type NotionStore struct {
	Client     NotionService
	DatabaseID string
	now        func() time.Time
}

// NewNotionStore creates a NotionStore for the given database.
func NewNotionStore(client NotionService, databaseID string) *NotionStore {
	return &NotionStore{Client: client, DatabaseID: databaseID, now: time.Now}
}

// ListEntries implements Source. Pages without a usable date are skipped.
func (s *NotionStore) ListEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	var cursor notionapi.Cursor
	entries := []domain.LedgerEntry{}

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
			Sorts: []notionapi.SortObject{
				{Property: notionDate, Direction: notionapi.SortOrderASC},
			},
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := s.Client.QueryDatabase(ctx, s.DatabaseID, req)
		if err != nil {
			return nil, fmt.Errorf("ListEntries: %w", err)
		}
		for _, page := range resp.Results {
			if page.Archived {
				continue
			}
			if e, ok := entryFromPage(page); ok {
				entries = append(entries, e)
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return entries, nil
}

// AddEntry implements Store.
func (s *NotionStore) AddEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	e = Sanitize(e)
	if err := ValidateEntry(e, s.clock()); err != nil {
		return domain.LedgerEntry{}, err
	}
	date, err := StoredDate(e.Date)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	e.Date = date

	page, err := s.Client.CreatePage(ctx, s.DatabaseID, entryProperties(e))
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("AddEntry: %w", err)
	}
	e.ID = string(page.ID)
	return e, nil
}

// UpdateEntry implements Store. Only non-empty fields are written.
func (s *NotionStore) UpdateEntry(ctx context.Context, id string, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	if id == "" {
		return domain.LedgerEntry{}, ErrInvalidID
	}
	e = Sanitize(e)
	if err := ValidateUpdate(e); err != nil {
		return domain.LedgerEntry{}, err
	}
	if e.Date != "" {
		date, err := StoredDate(e.Date)
		if err != nil {
			return domain.LedgerEntry{}, err
		}
		e.Date = date
	}

	page, err := s.Client.UpdatePage(ctx, id, entryProperties(e))
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("UpdateEntry: %w", err)
	}
	updated, ok := entryFromPage(*page)
	if !ok {
		e.ID = id
		return e, nil
	}
	return updated, nil
}

// DeleteEntry implements Store by archiving the page.
func (s *NotionStore) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	if err := s.Client.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	return nil
}

func (s *NotionStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// entryProperties converts an entry to Notion properties, leaving out empty fields.
func entryProperties(e domain.LedgerEntry) notionapi.Properties {
	props := notionapi.Properties{}

	if e.Description != "" {
		props[notionDescription] = notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: e.Description},
				},
			},
		}
	}
	if e.Date != "" {
		if t, err := time.Parse(StoredDateLayout, e.Date); err == nil {
			d := notionapi.Date(t)
			props[notionDate] = notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &d},
			}
		}
	}
	if e.Amount != 0 {
		props[notionAmount] = notionapi.NumberProperty{Number: e.Amount}
	}
	if e.Type != "" {
		props[notionType] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: e.Type},
		}
	}
	if e.Category != "" {
		props[notionCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: e.Category},
		}
	}
	return props
}

// entryFromPage reads a ledger entry from a page. It reports false when the
// page has no date.
func entryFromPage(page notionapi.Page) (domain.LedgerEntry, bool) {
	e := domain.LedgerEntry{ID: string(page.ID)}

	if prop, ok := page.Properties[notionDate]; ok {
		if date, ok := prop.(*notionapi.DateProperty); ok && date.Date != nil && date.Date.Start != nil {
			e.Date = time.Time(*date.Date.Start).Format(StoredDateLayout)
		}
	}
	if e.Date == "" {
		return e, false
	}

	if prop, ok := page.Properties[notionDescription]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			e.Description = plainText(title.Title)
		}
	}
	if prop, ok := page.Properties[notionAmount]; ok {
		if num, ok := prop.(*notionapi.NumberProperty); ok {
			e.Amount = num.Number
		}
	}
	if prop, ok := page.Properties[notionType]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			e.Type = sel.Select.Name
		}
	}
	if prop, ok := page.Properties[notionCategory]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			e.Category = sel.Select.Name
		}
	}
	if e.Type == "" {
		e.Type = TypeForAmount(e.Amount)
	}
	return e, true
}

func plainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, p := range parts {
		if p.PlainText != "" {
			b.WriteString(p.PlainText)
		} else if p.Text != nil {
			b.WriteString(p.Text.Content)
		}
	}
	return b.String()
}

var _ Store = (*NotionStore)(nil)
