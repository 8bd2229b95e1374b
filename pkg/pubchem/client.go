// Package pubchem provides a client for the PubChem PUG REST API: CAS→CID
// resolution and per-CID property retrieval. The client classifies failures
// (not found, transient, malformed payload) but does not retry; callers own
// the retry policy.
package pubchem

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/chemstack/formulant/internal/resilience"
)

// DefaultBaseURL is the public PUG REST endpoint.
const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

// ErrNotFound is returned when the service is reachable but has no entry for
// the requested CAS or CID. Callers cache this as a negative result.
var ErrNotFound = eris.New("pubchem: compound not found")

// Client defines the two read-only lookups the enrichment pipeline needs.
type Client interface {
	// ResolveCID converts a CAS number to a PubChem CID. When PubChem
	// reports multiple CIDs for one name, the first wins.
	ResolveCID(ctx context.Context, cas string) (int64, error)

	// FetchProperties retrieves the named property tags for a CID and
	// returns the raw payload for descriptor selection.
	FetchProperties(ctx context.Context, cid int64, tags []string) (Payload, error)
}

// Payload wraps the single property row PubChem returns for a CID. Field
// types drift between releases (MolecularWeight moved from number to
// string), so accessors coerce leniently.
type Payload struct {
	props gjson.Result
}

// Str returns the string property for tag, if present and non-empty.
func (p Payload) Str(tag string) (string, bool) {
	v := p.props.Get(tag)
	if !v.Exists() || v.Type == gjson.Null {
		return "", false
	}
	s := v.String()
	if s == "" {
		return "", false
	}
	return s, true
}

// Num returns the numeric property for tag, accepting both JSON numbers and
// numeric strings.
func (p Payload) Num(tag string) (float64, bool) {
	v := p.props.Get(tag)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, false
	}
	switch v.Type {
	case gjson.Number:
		return v.Float(), true
	case gjson.String:
		if strings.TrimSpace(v.Str) == "" {
			return 0, false
		}
		return v.Float(), true
	default:
		return 0, false
	}
}

// Int returns the integer property for tag, with the same coercion as Num.
func (p Payload) Int(tag string) (int, bool) {
	f, ok := p.Num(tag)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Option configures the PubChem client.
type Option func(*httpClient)

// WithBaseURL overrides the PUG REST base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter sets the outbound request limiter. PubChem asks clients to
// stay under 5 requests per second.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a PubChem PUG REST client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ResolveCID(ctx context.Context, cas string) (int64, error) {
	reqURL := fmt.Sprintf("%s/compound/name/%s/cids/JSON", c.baseURL, url.PathEscape(cas))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return 0, err
	}

	idList := gjson.GetBytes(body, "IdentifierList")
	if !idList.Exists() {
		return 0, resilience.NewTransientError(
			eris.Errorf("pubchem: malformed identifier payload for %s", cas), 0)
	}
	cids := idList.Get("CID")
	if !cids.Exists() || len(cids.Array()) == 0 {
		return 0, ErrNotFound
	}
	cid := cids.Array()[0].Int()
	if cid <= 0 {
		return 0, resilience.NewTransientError(
			eris.Errorf("pubchem: malformed CID list for %s", cas), 0)
	}
	return cid, nil
}

func (c *httpClient) FetchProperties(ctx context.Context, cid int64, tags []string) (Payload, error) {
	reqURL := fmt.Sprintf("%s/compound/cid/%d/property/%s/JSON",
		c.baseURL, cid, strings.Join(tags, ","))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return Payload{}, err
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return Payload{}, resilience.NewTransientError(
			eris.Wrapf(err, "pubchem: malformed property payload for CID %d", cid), 0)
	}
	return payload, nil
}

// ParsePayload extracts the single property row from a PUG REST property
// response body.
func ParsePayload(body []byte) (Payload, error) {
	props := gjson.GetBytes(body, "PropertyTable.Properties.0")
	if !props.Exists() {
		return Payload{}, eris.New("pubchem: no property row in payload")
	}
	return Payload{props: props}, nil
}

// get performs a rate-limited GET and maps status codes onto the error
// taxonomy: 404 (or a PUGREST.NotFound fault) means the compound does not
// exist; 408/429/5xx are transient; anything else is a hard failure.
func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "pubchem: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "pubchem: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "pubchem: read body"), resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("pubchem: status %d: %s", resp.StatusCode, truncate(body, 200)),
			resp.StatusCode)
	default:
		// PubChem signals some not-found cases as 400 with a fault code.
		if gjson.GetBytes(body, "Fault.Code").Str == "PUGREST.NotFound" {
			return nil, ErrNotFound
		}
		return nil, eris.Errorf("pubchem: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
