// Package supabase reads the guestbook through the PostgREST API of a hosted
// Supabase project, sending the same headers the supabase-js client does.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/storage"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

const restPath = "/rest/v1"

// Store implements storage.GuestbookStore against PostgREST
type Store struct {
	client *resty.Client
	table  string
}

// NewStore creates a client for the configured project.
// It does not contact the service; use Ping for that.
func NewStore(cfg *config.ServiceConfig) (*Store, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("%w: API_URL and API_KEY are required", storage.ErrUnavailable)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+restPath).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.Key).
		SetAuthToken(cfg.Key).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "go-dugong")

	// PostgREST selects non-default schemas through profile headers
	if cfg.Schema != "" {
		client.SetHeader("Accept-Profile", cfg.Schema)
	}

	return &Store{
		client: client,
		table:  cfg.Table,
	}, nil
}

// ListEntries fetches all rows ordered by id, highest first.
// Transport failures map to storage.ErrUnavailable, rejected queries to *storage.QueryError.
func (s *Store) ListEntries(ctx context.Context) (domain.GuestbookEntries, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": "*",
			"order":  domain.IDColumn + ".desc",
		}).
		Get("/" + s.table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	if resp.IsError() {
		return nil, parseError(resp)
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()

	var entries domain.GuestbookEntries
	if err := dec.Decode(&entries); err != nil {
		return nil, &storage.QueryError{
			Status:  resp.StatusCode(),
			Message: fmt.Sprintf("invalid response body: %v", err),
		}
	}
	if entries == nil {
		entries = domain.GuestbookEntries{}
	}

	return entries, nil
}

// Ping checks that the service answers and the table is readable
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": domain.IDColumn,
			"limit":  "1",
		}).
		Get("/" + s.table)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	if resp.IsError() {
		return parseError(resp)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no dedicated resources
func (s *Store) Close() error {
	return nil
}

// parseError reads PostgREST's {code, message, details, hint} error body
func parseError(resp *resty.Response) *storage.QueryError {
	qe := &storage.QueryError{Status: resp.StatusCode()}

	body := resp.Body()
	if gjson.ValidBytes(body) {
		result := gjson.ParseBytes(body)
		qe.Code = result.Get("code").String()
		qe.Message = result.Get("message").String()
		qe.Hint = result.Get("hint").String()
		if qe.Message == "" {
			// Gateway errors use {"msg": ...} or {"error": ...}
			qe.Message = result.Get("msg").String()
		}
		if qe.Message == "" {
			qe.Message = result.Get("error").String()
		}
	}

	if qe.Message == "" {
		qe.Message = strings.TrimSpace(string(body))
	}
	if qe.Message == "" {
		qe.Message = http.StatusText(resp.StatusCode())
	}

	return qe
}
