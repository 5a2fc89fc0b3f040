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

// Package client provides interfaces for interacting with the Convene server
// and the data structures for responses
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/convene/convene/pkg/context"
	"github.com/convene/convene/pkg/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultRequestTimeout bounds a single remote call when the context does not
// carry a configured timeout
const DefaultRequestTimeout = 10 * time.Second

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether the given error chain contains a 404 response
// from the server
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsNotFound()
	}

	return false
}

// IsRetriable reports whether the given remote failure may succeed on a later
// attempt. Transport failures and 5xx responses are retriable; a well-formed
// 4xx response is not.
func IsRetriable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}

	return true
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

func getHTTPClient(ctx context.ConveneCtx) *http.Client {
	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{}
}

func getRequestTimeout(ctx context.ConveneCtx) time.Duration {
	if ctx.RequestTimeout != 0 {
		return ctx.RequestTimeout
	}

	return DefaultRequestTimeout
}

func getReq(ctx context.ConveneCtx, path, method, body string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequest(method, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("Client-Version", ctx.Version)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if ctx.SessionKey != "" {
		credential := fmt.Sprintf("Bearer %s", ctx.SessionKey)
		req.Header.Set("Authorization", credential)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error. A 404
// response surfaces as an HTTPError so that callers can classify it.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(string(body), "\n"),
	}
}

// doReq does a http request to the given path in the api endpoint. Each call
// is bounded by the configured request timeout, which covers the response body
// read as well so that callers may decode after doReq returns.
func doReq(ctx context.ConveneCtx, method, path, body string) (*http.Response, error) {
	req, err := getReq(ctx, path, method, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := *getHTTPClient(ctx)
	hc.Timeout = getRequestTimeout(ctx)
	res, err := hc.Do(req)
	if err != nil {
		return res, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		res.Body.Close()
		return res, errors.Wrap(err, "server responded with an error")
	}

	return res, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint as
// a user, with the appropriate headers. The given path should include the
// preceding slash.
func doAuthorizedReq(ctx context.ConveneCtx, method, path, body string) (*http.Response, error) {
	if ctx.SessionKey == "" {
		return nil, errors.New("no session key found")
	}

	return doReq(ctx, method, path, body)
}

// RespBookmark is a bookmark row in a server response
type RespBookmark struct {
	ID         int64  `json:"id"`
	Year       int    `json:"year"`
	Slug       string `json:"slug"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	WatchLater bool   `json:"watchLater"`
	Priority   int    `json:"priority"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// RespNote is a note row in a server response
type RespNote struct {
	ID        int64  `json:"id"`
	Year      int    `json:"year"`
	Slug      string `json:"slug"`
	Body      string `json:"note"`
	Time      string `json:"time,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// CreateBookmarkParams is a payload for creating a bookmark
type CreateBookmarkParams struct {
	Year       int    `json:"year"`
	Type       string `json:"type"`
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	WatchLater bool   `json:"watchLater"`
	Priority   int    `json:"priority"`
}

// CreateBookmarkResp is the response from the create bookmark api
type CreateBookmarkResp struct {
	Result RespBookmark `json:"result"`
}

// CreateBookmark creates a new bookmark in the server
func CreateBookmark(ctx context.ConveneCtx, params CreateBookmarkParams) (CreateBookmarkResp, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return CreateBookmarkResp{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/v1/bookmarks", string(b))
	if err != nil {
		return CreateBookmarkResp{}, errors.Wrap(err, "posting a bookmark to the server")
	}
	defer res.Body.Close()

	var resp CreateBookmarkResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return CreateBookmarkResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// UpdateBookmarkParams is a payload for updating a bookmark. Nil fields are
// left unchanged by the server.
type UpdateBookmarkParams struct {
	Status     *string `json:"status,omitempty"`
	WatchLater *bool   `json:"watchLater,omitempty"`
	Priority   *int    `json:"priority,omitempty"`
}

// UpdateBookmarkResp is the response from the update bookmark api
type UpdateBookmarkResp struct {
	Result RespBookmark `json:"result"`
}

// UpdateBookmark updates a bookmark in the server
func UpdateBookmark(ctx context.ConveneCtx, id int64, params UpdateBookmarkParams) (UpdateBookmarkResp, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return UpdateBookmarkResp{}, errors.Wrap(err, "marshaling payload")
	}

	endpoint := fmt.Sprintf("/v1/bookmarks/%d", id)
	res, err := doAuthorizedReq(ctx, "PATCH", endpoint, string(b))
	if err != nil {
		return UpdateBookmarkResp{}, errors.Wrap(err, "patching a bookmark in the server")
	}
	defer res.Body.Close()

	var resp UpdateBookmarkResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return UpdateBookmarkResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// DeleteBookmarkResp is the response from the delete bookmark api
type DeleteBookmarkResp struct {
	Status int `json:"status"`
}

// DeleteBookmark deletes a bookmark in the server
func DeleteBookmark(ctx context.ConveneCtx, id int64) (DeleteBookmarkResp, error) {
	endpoint := fmt.Sprintf("/v1/bookmarks/%d", id)
	res, err := doAuthorizedReq(ctx, "DELETE", endpoint, "")
	if err != nil {
		return DeleteBookmarkResp{}, errors.Wrap(err, "deleting a bookmark in the server")
	}
	defer res.Body.Close()

	var resp DeleteBookmarkResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return DeleteBookmarkResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// CreateNoteParams is a payload for creating a note
type CreateNoteParams struct {
	Year int    `json:"year"`
	Slug string `json:"slug"`
	Note string `json:"note"`
	Time string `json:"time,omitempty"`
}

// CreateNoteResp is the response from the create note api
type CreateNoteResp struct {
	Result RespNote `json:"result"`
}

// CreateNote creates a note in the server
func CreateNote(ctx context.ConveneCtx, params CreateNoteParams) (CreateNoteResp, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return CreateNoteResp{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/v1/notes", string(b))
	if err != nil {
		return CreateNoteResp{}, errors.Wrap(err, "posting a note to the server")
	}
	defer res.Body.Close()

	var resp CreateNoteResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return CreateNoteResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// UpdateNoteParams is a payload for updating a note
type UpdateNoteParams struct {
	Note *string `json:"note,omitempty"`
	Time *string `json:"time,omitempty"`
}

// UpdateNoteResp is the response from the update note api
type UpdateNoteResp struct {
	Result RespNote `json:"result"`
}

// UpdateNote updates a note in the server
func UpdateNote(ctx context.ConveneCtx, id int64, params UpdateNoteParams) (UpdateNoteResp, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return UpdateNoteResp{}, errors.Wrap(err, "marshaling payload")
	}

	endpoint := fmt.Sprintf("/v1/notes/%d", id)
	res, err := doAuthorizedReq(ctx, "PATCH", endpoint, string(b))
	if err != nil {
		return UpdateNoteResp{}, errors.Wrap(err, "patching a note in the server")
	}
	defer res.Body.Close()

	var resp UpdateNoteResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return UpdateNoteResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// DeleteNoteResp is the response from the delete note api
type DeleteNoteResp struct {
	Status int `json:"status"`
}

// DeleteNote removes a note in the server
func DeleteNote(ctx context.ConveneCtx, id int64) (DeleteNoteResp, error) {
	endpoint := fmt.Sprintf("/v1/notes/%d", id)
	res, err := doAuthorizedReq(ctx, "DELETE", endpoint, "")
	if err != nil {
		return DeleteNoteResp{}, errors.Wrap(err, "deleting a note in the server")
	}
	defer res.Body.Close()

	var resp DeleteNoteResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return DeleteNoteResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// GetBookmarks fetches the authoritative bookmark set for the given year.
// It is the "server records" input to reconciliation.
func GetBookmarks(ctx context.ConveneCtx, year int) ([]RespBookmark, error) {
	v := url.Values{}
	v.Set("year", strconv.Itoa(year))

	path := fmt.Sprintf("/v1/bookmarks?%s", v.Encode())
	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return nil, errors.Wrap(err, "getting bookmarks from the server")
	}
	defer res.Body.Close()

	var resp []RespBookmark
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// GetNotes fetches the authoritative note set for the given year
func GetNotes(ctx context.ConveneCtx, year int) ([]RespNote, error) {
	v := url.Values{}
	v.Set("year", strconv.Itoa(year))

	path := fmt.Sprintf("/v1/notes?%s", v.Encode())
	res, err := doAuthorizedReq(ctx, "GET", path, "")
	if err != nil {
		return nil, errors.Wrap(err, "getting notes from the server")
	}
	defer res.Body.Close()

	var resp []RespNote
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}
