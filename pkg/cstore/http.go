package cstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Ratio1/cart_sdk_go/internal/apienvelope"
	"github.com/Ratio1/cart_sdk_go/internal/httpx"
)

var jsonHeader = http.Header{"Content-Type": []string{"application/json"}}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) GetRaw(ctx context.Context, key string) ([]byte, error) {
	data, err := b.call(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "get",
		Query:  url.Values{"key": {key}},
	})
	if err != nil {
		return nil, err
	}
	return apienvelope.Unwrap(data)
}

func (b *httpBackend) PutRaw(ctx context.Context, key string, raw []byte) (*RawItem, error) {
	body, err := Encode(map[string]any{
		"key":              key,
		"value":            string(raw),
		"chainstore_peers": []string{},
	})
	if err != nil {
		return nil, err
	}
	if _, err := b.call(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   "set",
		Header: jsonHeader,
		Body:   body,
	}); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *httpBackend) ListKeys(ctx context.Context) ([]string, error) {
	data, err := b.call(ctx, &httpx.Request{
		Method: http.MethodGet,
		Path:   "get_status",
	})
	if err != nil {
		return nil, err
	}
	var status Status
	if err := apienvelope.Decode(data, &status); err != nil {
		return nil, fmt.Errorf("cstore: decode get_status response: %w", err)
	}
	return status.Keys, nil
}

func (b *httpBackend) DeleteRaw(ctx context.Context, key string) error {
	body, err := Encode(map[string]string{"key": key})
	if err != nil {
		return err
	}
	_, err = b.call(ctx, &httpx.Request{
		Method:       http.MethodPost,
		Path:         "delete",
		Header:       jsonHeader,
		Body:         body,
		DisableRetry: true,
	})
	var httpErr *httpx.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusMethodNotAllowed, http.StatusNotImplemented:
			return fmt.Errorf("%w: delete endpoint not available", ErrUnsupportedFeature)
		}
	}
	return err
}

func (b *httpBackend) call(ctx context.Context, req *httpx.Request) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, errors.New("cstore: http backend not configured")
	}
	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return httpx.ReadAllAndClose(resp.Body)
}
