/* Copyright 2026 Convene Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package client

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/convene/convene/pkg/assert"
	"github.com/convene/convene/pkg/context"
	"github.com/pkg/errors"
)

func newTestCtx(server *httptest.Server) context.ConveneCtx {
	return context.ConveneCtx{
		APIEndpoint: server.URL,
		Version:     "test",
		SessionKey:  "test-session-key",
		HTTPClient:  server.Client(),
	}
}

func TestCreateBookmark(t *testing.T) {
	// Setup
	var gotAuth, gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path

		fmt.Fprint(w, `{"result":{"id":501,"year":2026,"slug":"go-generics-deep-dive","type":"event","status":"favourited"}}`)
	}))
	defer server.Close()

	ctx := newTestCtx(server)

	// Execute
	resp, err := CreateBookmark(ctx, CreateBookmarkParams{
		Year:   2026,
		Type:   "event",
		Slug:   "go-generics-deep-dive",
		Status: "favourited",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating bookmark"))
	}

	// Test
	assert.Equal(t, gotMethod, "POST", "method mismatch")
	assert.Equal(t, gotPath, "/v1/bookmarks", "path mismatch")
	assert.Equal(t, gotAuth, "Bearer test-session-key", "authorization header mismatch")
	assert.Equal(t, resp.Result.ID, int64(501), "server id mismatch")
}

func TestDoAuthorizedReq_noSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("the server must not be contacted without a session")
	}))
	defer server.Close()

	ctx := newTestCtx(server)
	ctx.SessionKey = ""

	_, err := CreateBookmark(ctx, CreateBookmarkParams{})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestIsNotFound(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such bookmark", http.StatusNotFound)
	}))
	defer server.Close()

	ctx := newTestCtx(server)

	// Execute
	_, err := DeleteBookmark(ctx, 999)

	// Test
	if err == nil {
		t.Fatal("expected an error")
	}
	assert.Equal(t, IsNotFound(err), true, "a 404 response must classify as not found")
	assert.Equal(t, IsRetriable(err), false, "a 404 response must not classify as retriable")
}

func TestIsRetriable(t *testing.T) {
	testCases := []struct {
		err      error
		expected bool
	}{
		{
			err:      &HTTPError{StatusCode: http.StatusInternalServerError, Message: "oops"},
			expected: true,
		},
		{
			err:      &HTTPError{StatusCode: http.StatusBadGateway, Message: "bad gateway"},
			expected: true,
		},
		{
			err:      &HTTPError{StatusCode: http.StatusBadRequest, Message: "bad payload"},
			expected: false,
		},
		{
			err:      &HTTPError{StatusCode: http.StatusNotFound, Message: "gone"},
			expected: false,
		},
		{
			err:      errors.New("connection refused"),
			expected: true,
		},
		{
			err:      errors.Wrap(&HTTPError{StatusCode: http.StatusServiceUnavailable, Message: "overloaded"}, "making http request"),
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, IsRetriable(tc.err), tc.expected, "classification mismatch")
		})
	}
}

func TestGetBookmarks(t *testing.T) {
	// Setup
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `[{"id":1,"year":2026,"slug":"a","type":"event","status":"favourited"},{"id":2,"year":2026,"slug":"b","type":"track","status":"favourited"}]`)
	}))
	defer server.Close()

	ctx := newTestCtx(server)

	// Execute
	got, err := GetBookmarks(ctx, 2026)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting bookmarks"))
	}

	// Test
	assert.Equal(t, gotQuery, "year=2026", "query mismatch")
	assert.Equal(t, len(got), 2, "bookmark count mismatch")
	assert.Equal(t, got[0].ID, int64(1), "server id mismatch")
	assert.Equal(t, got[1].Slug, "b", "slug mismatch")
}

type bodyCloseTracker struct {
	io.ReadCloser
	closed *int32
}

func (b *bodyCloseTracker) Close() error {
	atomic.AddInt32(b.closed, 1)
	return b.ReadCloser.Close()
}

// trackingTransport counts how many response bodies get closed so that a
// leaked connection surfaces as a test failure
type trackingTransport struct {
	transport http.RoundTripper
	closed    *int32
}

func (t *trackingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.transport.RoundTrip(req)
	if res != nil {
		res.Body = &bodyCloseTracker{ReadCloser: res.Body, closed: t.closed}
	}

	return res, err
}

func TestResponseBodyClosed(t *testing.T) {
	// Setup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			fmt.Fprint(w, `{"result":{"id":501,"year":2026,"slug":"go-generics-deep-dive","type":"event","status":"favourited"}}`)
			return
		}

		http.Error(w, "database is on fire", http.StatusInternalServerError)
	}))
	defer server.Close()

	var closed int32
	ctx := newTestCtx(server)
	ctx.HTTPClient = &http.Client{
		Transport: &trackingTransport{transport: server.Client().Transport, closed: &closed},
	}

	// Execute: one call that decodes a response and one that gets an error
	// response back
	if _, err := CreateBookmark(ctx, CreateBookmarkParams{
		Year:   2026,
		Type:   "event",
		Slug:   "go-generics-deep-dive",
		Status: "favourited",
	}); err != nil {
		t.Fatal(errors.Wrap(err, "creating bookmark"))
	}

	if _, err := GetBookmarks(ctx, 2026); err == nil {
		t.Fatal("expected an error")
	}

	// Test
	assert.Equal(t, atomic.LoadInt32(&closed), int32(2), "every response body must be closed")
}

func TestToLocalBookmark(t *testing.T) {
	r := RespBookmark{
		ID:     501,
		Year:   2026,
		Slug:   "go-generics-deep-dive",
		Type:   "event",
		Status: "favourited",
	}

	got := r.ToLocalBookmark()

	assert.Equal(t, got.ID, "2026-go-generics-deep-dive", "local id mismatch")
	assert.Equal(t, got.ServerID, int64(501), "server id mismatch")
	assert.Equal(t, got.Status, "favourited", "status mismatch")
}
