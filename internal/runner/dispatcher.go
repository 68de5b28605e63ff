package runner

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const bulkReadLimit = 1000

var defaultPayloads = mustPayloads(NewPayloads("", ""))

// StatusError is the failure reported for a non-2xx response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Status, http.StatusText(e.Status))
}

// Dispatcher issues single CRUD calls against a target base URL.
type Dispatcher struct {
	Client   *http.Client
	Payloads *Payloads
}

func NewDispatcher(timeout time.Duration, payloads *Payloads) *Dispatcher {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	if payloads == nil {
		payloads = defaultPayloads
	}

	return &Dispatcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
		Payloads: payloads,
	}
}

// Do performs exactly one call for op and reports its outcome. Latency is only
// meaningful when the outcome is a success.
func (d *Dispatcher) Do(ctx context.Context, baseURL string, op Operation) Outcome {
	req, err := d.newRequest(ctx, strings.TrimRight(baseURL, "/"), op)
	if err != nil {
		if errors.Is(err, ErrUnknownOperation) {
			panic(err)
		}
		return Outcome{Err: err}
	}

	start := time.Now()
	resp, err := d.Client.Do(req)
	if err != nil {
		return Outcome{Err: err}
	}
	_, copyErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Outcome{Status: resp.StatusCode, Err: &StatusError{Status: resp.StatusCode}}
	}
	// A 2xx whose body was cut off is a network failure.
	if copyErr != nil {
		return Outcome{Status: resp.StatusCode, Err: errors.Wrap(copyErr, "reading response body")}
	}
	return Outcome{Latency: elapsed, Status: resp.StatusCode}
}

// Probe calls the target's liveness endpoint.
func (d *Dispatcher) Probe(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/health", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

func (d *Dispatcher) newRequest(ctx context.Context, base string, op Operation) (*http.Request, error) {
	var method, path string
	switch op {
	case OpCreate:
		method, path = http.MethodPost, "/products"
	case OpRead:
		method, path = http.MethodGet, "/products"
	case OpUpdate:
		method, path = http.MethodPut, "/products/"+uuid.NewString()
	case OpDelete:
		method, path = http.MethodDelete, "/products/"+uuid.NewString()
	case OpBulkRead:
		method, path = http.MethodGet, fmt.Sprintf("/products/bulk?limit=%d", bulkReadLimit)
	default:
		return nil, errors.Wrapf(ErrUnknownOperation, "%q", string(op))
	}

	body, err := d.Payloads.Render(op)
	if err != nil {
		return nil, errors.Wrapf(err, "rendering %s payload", op)
	}

	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
