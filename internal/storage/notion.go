package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"optemus/internal/domain"
)

const notionVersion = "2022-06-28"

// Notion database property names. The database schema is managed by hand in
// the Notion workspace; these must match it exactly.
const (
	propID          = "ID"
	propPrompt      = "Prompt"
	propImageURL    = "Image URL"
	propFilename    = "Filename"
	propCreatedAt   = "Created At"
	propSize        = "Size"
	propQuality     = "Quality"
	propStyleType   = "Style Type"
	propStylePreset = "Style Preset"
)

// NotionOptions configures the document-database backend.
type NotionOptions struct {
	Token      string
	DatabaseID string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// NotionStore persists one database row per image with typed fields and
// queries them back sorted server-side. Deletion is accepted but has no
// effect; rows are kept as a permanent log (known limitation, surfaced via
// logs rather than hidden from callers).
type NotionStore struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
	logger     zerolog.Logger
}

// NewNotionStore builds the backend. Token and database id are required.
func NewNotionStore(opts NotionOptions) (*NotionStore, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("storage: notion token is required")
	}
	if strings.TrimSpace(opts.DatabaseID) == "" {
		return nil, errors.New("storage: notion database id is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.notion.com"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &NotionStore{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.Token),
		databaseID: strings.TrimSpace(opts.DatabaseID),
		logger:     opts.Logger,
	}, nil
}

func (s *NotionStore) Name() string { return BackendDocDB }

type notionText struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
	PlainText string `json:"plain_text,omitempty"`
}

func richText(content string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]any{"content": content}},
		},
	}
}

func selectValue(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

type notionProperty struct {
	RichText []notionText `json:"rich_text,omitempty"`
	URL      string       `json:"url,omitempty"`
	Date     *struct {
		Start string `json:"start"`
	} `json:"date,omitempty"`
	Select *struct {
		Name string `json:"name"`
	} `json:"select,omitempty"`
}

func (p notionProperty) text() string {
	for _, t := range p.RichText {
		if t.PlainText != "" {
			return t.PlainText
		}
		if t.Text.Content != "" {
			return t.Text.Content
		}
	}
	return ""
}

type notionPage struct {
	ID             string                    `json:"id"`
	LastEditedTime string                    `json:"last_edited_time"`
	Properties     map[string]notionProperty `json:"properties"`
}

type notionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Persist creates one database row. The image bytes themselves are not
// uploaded; the row points at the canonical URL, so URL-less payloads are
// rejected.
func (s *NotionStore) Persist(ctx context.Context, req PersistRequest) (domain.StoredImageRecord, error) {
	if req.SourceURL == "" {
		return domain.StoredImageRecord{}, fmt.Errorf("%w: document store needs an image url", domain.ErrStorageWrite)
	}
	cleanKey, err := sanitizeKey(req.Filename)
	if err != nil {
		return domain.StoredImageRecord{}, err
	}

	id := baseName(cleanKey)
	createdAt := req.CreatedAt.UTC()
	payload := map[string]any{
		"parent": map[string]any{"database_id": s.databaseID},
		"properties": map[string]any{
			propID:          richText(id),
			propPrompt:      richText(req.Prompt),
			propImageURL:    map[string]any{"url": req.SourceURL},
			propFilename:    richText(cleanKey),
			propCreatedAt:   map[string]any{"date": map[string]any{"start": createdAt.Format(time.RFC3339)}},
			propSize:        selectValue(req.Settings.Size),
			propQuality:     selectValue(req.Settings.Quality),
			propStyleType:   selectValue(req.Settings.StyleType),
			propStylePreset: selectValue(req.Settings.StylePreset),
		},
	}

	var page notionPage
	if err := s.do(ctx, http.MethodPost, "/v1/pages", payload, &page); err != nil {
		return domain.StoredImageRecord{}, fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return domain.StoredImageRecord{
		ID:        id,
		Filename:  cleanKey,
		Prompt:    req.Prompt,
		URL:       req.SourceURL,
		CreatedAt: createdAt,
		Settings:  req.Settings,
		Storage:   domain.StorageFlags{DocDB: true},
	}, nil
}

// List queries the database sorted by the Created At date property,
// descending, server-side.
func (s *NotionStore) List(ctx context.Context) ([]domain.StoredImageRecord, error) {
	payload := map[string]any{
		"sorts": []map[string]any{
			{"property": propCreatedAt, "direction": "descending"},
		},
	}

	var out struct {
		Results []notionPage `json:"results"`
	}
	path := "/v1/databases/" + s.databaseID + "/query"
	if err := s.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageList, err)
	}

	records := make([]domain.StoredImageRecord, 0, len(out.Results))
	for _, page := range out.Results {
		rec := domain.StoredImageRecord{
			ID:       page.Properties[propID].text(),
			Prompt:   page.Properties[propPrompt].text(),
			URL:      page.Properties[propImageURL].URL,
			Filename: page.Properties[propFilename].text(),
			Storage:  domain.StorageFlags{DocDB: true},
		}
		if rec.ID == "" {
			rec.ID = page.ID
		}
		if d := page.Properties[propCreatedAt].Date; d != nil {
			if ts, err := parseMetadataTimestamp(d.Start); err == nil {
				rec.CreatedAt = ts
			}
		}
		if mod, err := parseMetadataTimestamp(page.LastEditedTime); err == nil {
			rec.ModTime = mod
		}
		if sel := page.Properties[propSize].Select; sel != nil {
			rec.Settings.Size = sel.Name
		}
		if sel := page.Properties[propQuality].Select; sel != nil {
			rec.Settings.Quality = sel.Name
		}
		if sel := page.Properties[propStyleType].Select; sel != nil {
			rec.Settings.StyleType = sel.Name
		}
		if sel := page.Properties[propStylePreset].Select; sel != nil {
			rec.Settings.StylePreset = sel.Name
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete reports success without removing anything. Rows in the document
// database are never deleted by this service.
func (s *NotionStore) Delete(ctx context.Context, id string) error {
	s.logger.Warn().Str("id", id).Msg("docdb backend does not implement deletion; request accepted without effect")
	return nil
}

func (s *NotionStore) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var ne notionError
		if json.NewDecoder(resp.Body).Decode(&ne) == nil && ne.Message != "" {
			return fmt.Errorf("notion error: %s (%s)", ne.Message, ne.Code)
		}
		return fmt.Errorf("notion: http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Backend = (*NotionStore)(nil)
