package resource

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go-lesson-cache/internal/bytecache"
)

// takeSnapshot drains a response into a storable snapshot. The original
// body is closed; use snapshotResponse to hand a replayable response
// back to the caller.
func takeSnapshot(resp *http.Response) (*bytecache.Snapshot, error) {
	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}

	header := resp.Header.Clone()
	if header.Get("Date") == "" {
		header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}

	return &bytecache.Snapshot{
		Status:   resp.StatusCode,
		Header:   header,
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

// snapshotResponse materializes a stored snapshot as an *http.Response.
func snapshotResponse(req *http.Request, snap *bytecache.Snapshot) *http.Response {
	return &http.Response{
		StatusCode:    snap.Status,
		Status:        http.StatusText(snap.Status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        snap.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(snap.Body)),
		ContentLength: int64(len(snap.Body)),
		Request:       req,
	}
}

// cacheable reports whether a network response should be stored.
// Mirrors the "response.ok" check: only 2xx responses repopulate caches.
func cacheable(status int) bool {
	return status >= 200 && status < 300
}
