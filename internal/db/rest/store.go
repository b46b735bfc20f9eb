// Package rest calls database procedures through a PostgREST endpoint
// (the /rest/v1/rpc surface exposed by Supabase).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/catsearch/internal/db"
)

// DriverName identifies this driver in logs and metrics.
const DriverName = "rest"

const maxErrorBody = 2048

// Config holds PostgREST connection settings.
type Config struct {
	URL        string // project URL, e.g. https://xyz.supabase.co
	Key        string // service-role key, sent as apikey and bearer token
	Schema     string // exposed schema; "public" needs no profile header
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Store implements db.Store over HTTP. It holds only connection configuration
// and is safe for concurrent use.
type Store struct {
	base   *url.URL
	key    string
	schema string
	client *http.Client
}

var _ db.Store = (*Store)(nil)

// NewStore validates the project URL and builds a store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("rest: url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest: parse url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("rest: url must be http or https, got %q", cfg.URL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("rest: url has no host: %q", cfg.URL)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Store{base: base, key: cfg.Key, schema: cfg.Schema, client: client}, nil
}

// Driver returns the driver name.
func (s *Store) Driver() string { return DriverName }

// Close is a no-op: the store owns no pooled connections beyond the shared transport.
func (s *Store) Close() {}

// Ping checks that the REST endpoint accepts the configured key.
func (s *Store) Ping(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, "/rest/v1/", nil)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &db.Error{Op: db.OpPing, Err: &db.StatusError{Status: resp.StatusCode}}
	}
	return nil
}

// CallProcedure posts the named arguments as a JSON object to /rest/v1/rpc/{name}.
func (s *Store) CallProcedure(ctx context.Context, call *db.ProcedureCall) ([]db.Row, error) {
	args := make(map[string]any, len(call.Args))
	for _, a := range call.Args {
		args[a.Name] = a.Value
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: fmt.Errorf("encode args: %w", err)}
	}

	req, err := s.newRequest(ctx, http.MethodPost, "/rest/v1/rpc/"+url.PathEscape(call.Name), bytes.NewReader(body))
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.schema != "" && s.schema != "public" {
		req.Header.Set("Content-Profile", s.schema)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &db.Error{
			Op:        db.OpRPC,
			Procedure: call.Name,
			Err:       &db.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))},
		}
	}

	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: err}
	}
	return rows, nil
}

func (s *Store) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if s.schema != "" && s.schema != "public" {
		req.Header.Set("Accept-Profile", s.schema)
	}
	return req, nil
}

// decodeRows accepts a JSON array of objects, a single object (procedures
// returning one composite), or null. Numbers are kept as json.Number.
func decodeRows(r io.Reader) ([]db.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []db.Row{}, nil
		}
		return nil, fmt.Errorf("%w: %v", db.ErrMalformedResponse, err)
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return []db.Row{}, nil
	case trimmed[0] == '[':
		var rows []db.Row
		if err := unmarshalNumbers(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", db.ErrMalformedResponse, err)
		}
		if rows == nil {
			rows = []db.Row{}
		}
		for i, row := range rows {
			if row == nil {
				return nil, fmt.Errorf("%w: row %d is not an object", db.ErrMalformedResponse, i)
			}
		}
		return rows, nil
	case trimmed[0] == '{':
		var row db.Row
		if err := unmarshalNumbers(trimmed, &row); err != nil {
			return nil, fmt.Errorf("%w: %v", db.ErrMalformedResponse, err)
		}
		return []db.Row{row}, nil
	default:
		return nil, fmt.Errorf("%w: expected array of rows", db.ErrMalformedResponse)
	}
}

func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
