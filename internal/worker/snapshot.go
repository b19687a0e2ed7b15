package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
)

// Snapshot is an in-memory copy of a response: status, headers and the
// fully-read body. Taking a snapshot leaves the original response readable,
// so the body stream consumed for caching never interferes with the body
// stream returned to the caller.
type Snapshot struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// TakeSnapshot reads resp's body into a Snapshot and replaces resp.Body
// with a fresh reader over the same bytes.
func TakeSnapshot(resp *http.Response) (*Snapshot, error) {
	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close response body: %w", closeErr)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return &Snapshot{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
		Body:    body,
	}, nil
}

// OK reports whether the snapshot carries a 2xx status. Only OK snapshots
// are ever persisted.
func (s *Snapshot) OK() bool {
	return s.Status >= 200 && s.Status < 300
}

// ToEntity converts the snapshot into a storable record under the given
// namespace and cache key.
func (s *Snapshot) ToEntity(namespace, method, url string) (*entities.CachedResponse, error) {
	headers, err := json.Marshal(s.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response headers: %w", err)
	}
	return &entities.CachedResponse{
		Namespace: namespace,
		Method:    method,
		URL:       url,
		Status:    s.Status,
		Headers:   string(headers),
		Body:      append([]byte(nil), s.Body...),
	}, nil
}

// SnapshotFromEntity rebuilds a Snapshot from a stored record. Corrupt
// header JSON degrades to empty headers rather than failing the read path.
func SnapshotFromEntity(rec *entities.CachedResponse) *Snapshot {
	headers := http.Header{}
	if rec.Headers != "" {
		_ = json.Unmarshal([]byte(rec.Headers), &headers)
	}
	return &Snapshot{
		Status:  rec.Status,
		Headers: headers,
		Body:    append([]byte(nil), rec.Body...),
	}
}

// ToResponse materializes the snapshot as an *http.Response for req.
func (s *Snapshot) ToResponse(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    s.Status,
		Status:        fmt.Sprintf("%d %s", s.Status, http.StatusText(s.Status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        s.Headers.Clone(),
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}
