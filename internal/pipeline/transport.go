package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Transport adapts a Pipeline to http.RoundTripper so SDK-owned HTTP clients
// gain deduplication, caching, rate limiting, and retry without knowing about
// the pipeline. SetHeaders are added to every request before keying, which is
// where credential headers get injected.
type Transport struct {
	Pipeline   *Pipeline
	SetHeaders map[string]string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	for k, v := range t.SetHeaders {
		header.Set(k, v)
	}

	resp, err := t.Pipeline.Do(req.Context(), &Request{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: header,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		StatusCode:    resp.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Header,
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}, nil
}
