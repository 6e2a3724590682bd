package host

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FetchNavigator performs real HTTP requests on background goroutines
// and hands completed responses back on Poll, preserving the core's
// single-threaded model: script code only ever sees responses delivered
// between ticks.
type FetchNavigator struct {
	client *http.Client

	mu   sync.Mutex
	done []Response
}

// NewFetchNavigator creates a navigator with a bounded request timeout.
func NewFetchNavigator(timeout time.Duration) *FetchNavigator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FetchNavigator{client: &http.Client{Timeout: timeout}}
}

func (n *FetchNavigator) Fetch(url, method string, headers map[string]string, body []byte) string {
	id := uuid.NewString()
	go func() {
		resp := n.do(id, url, method, headers, body)
		n.mu.Lock()
		n.done = append(n.done, resp)
		n.mu.Unlock()
	}()
	return id
}

func (n *FetchNavigator) do(id, url, method string, headers map[string]string, body []byte) Response {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return Response{RequestID: id, URL: url, Err: errors.Wrap(err, "build request")}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return Response{RequestID: id, URL: url, Err: errors.Wrap(err, "fetch")}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{RequestID: id, URL: url, Status: resp.StatusCode, Err: errors.Wrap(err, "read body")}
	}
	flat := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		flat[k] = resp.Header.Get(k)
	}
	return Response{RequestID: id, URL: url, Status: resp.StatusCode, Headers: flat, Body: data}
}

func (n *FetchNavigator) Poll() []Response {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.done
	n.done = nil
	return out
}

// NullNavigator fails every request immediately; the offline default.
type NullNavigator struct {
	mu   sync.Mutex
	done []Response
}

func (n *NullNavigator) Fetch(url, method string, headers map[string]string, body []byte) string {
	id := uuid.NewString()
	n.mu.Lock()
	n.done = append(n.done, Response{RequestID: id, URL: url, Err: errors.New("navigator disabled")})
	n.mu.Unlock()
	return id
}

func (n *NullNavigator) Poll() []Response {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.done
	n.done = nil
	return out
}
