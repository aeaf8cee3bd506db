// Package httpstore implements store.Driver against a remote backend
// speaking the CBOR RPC protocol over HTTP. Each call is one POST to
// the backend's /rpc endpoint, so the driver is stateless and safe for
// concurrent use.
package httpstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/docref/docref.go/internal/codec"
	"github.com/docref/docref.go/internal/rand"
	"github.com/docref/docref.go/pkg/logger"
	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
)

const (
	requestIDLength = 16

	// DefaultTimeout bounds each HTTP round trip.
	DefaultTimeout = 10 * time.Second
)

type Store struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger

	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
}

var _ store.Driver = (*Store)(nil)

type Option func(*Store)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.httpClient = client
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

func WithCodec(m codec.Marshaler, u codec.Unmarshaler) Option {
	return func(s *Store) {
		s.marshaler = m
		s.unmarshaler = u
	}
}

// New returns a Store for the given base URL, e.g.
// "http://localhost:8000". No connection is held open; the first call
// talks to the backend.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      logger.New(os.Stderr),
		marshaler:   models.CborMarshaler{},
		unmarshaler: models.CborUnmarshaler{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Insert(ctx context.Context, id models.RecordID, data []byte) error {
	_, err := s.send(ctx, store.MethodInsert, id, cbor.RawMessage(data))
	return err
}

func (s *Store) Update(ctx context.Context, id models.RecordID, data []byte) error {
	_, err := s.send(ctx, store.MethodUpdate, id, cbor.RawMessage(data))
	return err
}

func (s *Store) Delete(ctx context.Context, id models.RecordID) error {
	_, err := s.send(ctx, store.MethodDelete, id)
	return err
}

func (s *Store) FindByID(ctx context.Context, id models.RecordID) ([]byte, error) {
	result, err := s.send(ctx, store.MethodFind, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) QueryByField(ctx context.Context, table, field string, value []byte) ([][]byte, error) {
	result, err := s.send(ctx, store.MethodQuery, table, field, cbor.RawMessage(value))
	if err != nil {
		return nil, err
	}

	var raw []cbor.RawMessage
	if err := s.unmarshaler.Unmarshal(result, &raw); err != nil {
		return nil, err
	}

	docs := make([][]byte, len(raw))
	for i, doc := range raw {
		docs[i] = doc
	}
	return docs, nil
}

func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *Store) send(ctx context.Context, method string, params ...any) (cbor.RawMessage, error) {
	payload, err := s.marshaler.Marshal(store.RPCRequest{
		ID:     rand.String(requestIDLength),
		Method: method,
		Params: params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rpc", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/cbor")
	req.Header.Set("Content-Type", "application/cbor")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", store.ErrUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	var res store.RPCResponse
	if err := s.unmarshaler.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	if res.Error != nil {
		return nil, fmt.Errorf("%s: %w", method, res.Error.Err())
	}

	s.logger.Debug("rpc done", "method", method)
	return res.Result, nil
}
