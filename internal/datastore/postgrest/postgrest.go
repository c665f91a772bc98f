// Package postgrest adapts the supabase-community PostgREST client (/rest/v1)
// to datastore.Client.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	pgrest "github.com/supabase-community/postgrest-go"

	"github.com/traveloop/traveloop/internal/datastore"
	"github.com/traveloop/traveloop/internal/restcall"
)

const (
	basePath = "/rest/v1"

	mediaJSON   = "application/json"
	mediaObject = "application/vnd.pgrst.object+json"

	returnRepresentation = "representation"
	returnMinimal        = "minimal"

	// codeNoRows is returned for an object request that matched zero or several rows.
	codeNoRows = "PGRST116"
)

// Client talks to the data service. Without an access token requests run as the anonymous role.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	timeout     time.Duration
}

// New creates a new data client.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + basePath,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// WithAccessToken implements datastore.Client.
func (c *Client) WithAccessToken(token string) datastore.Client {
	scoped := *c
	scoped.accessToken = token

	return &scoped
}

// Select implements datastore.Client.
func (c *Client) Select(ctx context.Context, q datastore.Query, out any) error {
	err := c.call(ctx, mediaJSON, out, func(pc *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(pc.From(q.Table).Select(selectClause(q), "", false), q)
	})
	if err != nil {
		return fmt.Errorf("postgrest.Select %s: %w", q.Table, err)
	}

	return nil
}

// Get implements datastore.Client.
func (c *Client) Get(ctx context.Context, q datastore.Query, out any) error {
	err := c.call(ctx, mediaObject, out, func(pc *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(pc.From(q.Table).Select(selectClause(q), "", false), q)
	})
	if err != nil {
		return fmt.Errorf("postgrest.Get %s: %w", q.Table, err)
	}

	return nil
}

// Insert implements datastore.Client.
func (c *Client) Insert(ctx context.Context, table string, record any) error {
	body, err := encodeBody(record)
	if err != nil {
		return fmt.Errorf("postgrest.Insert %s: %w", table, err)
	}

	err = c.call(ctx, mediaObject, record, func(pc *pgrest.Client) *pgrest.FilterBuilder {
		return pc.From(table).Insert(body, false, "", returnRepresentation, "")
	})
	if err != nil {
		return fmt.Errorf("postgrest.Insert %s: %w", table, err)
	}

	return nil
}

// Update implements datastore.Client. Embedded relations of the updated row
// are read in a second request.
func (c *Client) Update(ctx context.Context, q datastore.Query, values map[string]any, out any) error {
	var (
		accept    = mediaJSON
		returning = returnMinimal
		target    = out
	)

	if out != nil && len(q.Embeds) == 0 {
		accept = mediaObject
		returning = returnRepresentation
	} else {
		target = nil
	}

	body, err := encodeBody(values)
	if err != nil {
		return fmt.Errorf("postgrest.Update %s: %w", q.Table, err)
	}

	err = c.call(ctx, accept, target, func(pc *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(pc.From(q.Table).Update(body, returning, ""), q)
	})
	if err != nil {
		return fmt.Errorf("postgrest.Update %s: %w", q.Table, err)
	}

	if out != nil && len(q.Embeds) > 0 {
		return c.Get(ctx, q, out)
	}

	return nil
}

// call runs one request. accept is set on the client, it replaces the
// library's default Accept header. A non nil out receives the decoded body.
func (c *Client) call(
	ctx context.Context, accept string, out any, build func(pc *pgrest.Client) *pgrest.FilterBuilder,
) error {
	rt, cancel := restcall.New(ctx, c.timeout)
	defer cancel()

	bearer := c.accessToken
	if bearer == "" {
		bearer = c.apiKey
	}

	pc := pgrest.NewClient(c.baseURL, "", map[string]string{
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + bearer,
		"Accept":        accept,
	})
	pc.Transport.Parent = rt

	body, _, err := build(pc).Execute()
	if err != nil {
		if status, raw, ok := rt.Failed(); ok {
			return decodeError(status, raw)
		}

		return err //nolint:wrapcheck // wrapped by the operation
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// encodeBody marshals v up front. The query builder drops its client when it
// cannot encode a body.
func encodeBody(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}

	return raw, nil
}

func applyQuery(f *pgrest.FilterBuilder, q datastore.Query) *pgrest.FilterBuilder {
	for _, filter := range q.Filters {
		if filter.Op == datastore.OpIn {
			f = f.In(filter.Column, listValues(filter.Value))
		} else {
			f = f.Eq(filter.Column, fmt.Sprint(filter.Value))
		}
	}

	if q.Order != nil {
		f = f.Order(q.Order.Column, &pgrest.OrderOpts{Ascending: q.Order.Ascending})
	}

	if q.Limit > 0 {
		f = f.Limit(q.Limit, "")
	}

	return f
}

// selectClause renders "*,alias:table(*)" for the embeds of q.
func selectClause(q datastore.Query) string {
	parts := []string{"*"}

	for _, e := range q.Embeds {
		parts = append(parts, fmt.Sprintf("%s:%s(*)", e.Alias, e.Table))
	}

	return strings.Join(parts, ",")
}

func listValues(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}

		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

func decodeError(status int, raw []byte) error {
	dsErr := &datastore.Error{StatusCode: status}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}

	if json.Unmarshal(raw, &body) == nil {
		dsErr.Code = body.Code
		dsErr.Message = body.Message
		dsErr.Details = body.Details
		dsErr.Hint = body.Hint
	}

	if dsErr.Message == "" {
		dsErr.Message = strings.TrimSpace(string(raw))
	}

	if dsErr.Code == codeNoRows || status == http.StatusNotAcceptable {
		return fmt.Errorf("%w: %w", datastore.ErrNotFound, dsErr)
	}

	return dsErr
}

var _ datastore.Client = (*Client)(nil)
