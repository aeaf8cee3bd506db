// Package wsstore implements store.Driver against a remote backend
// speaking the CBOR RPC protocol over a WebSocket connection. Requests
// are correlated to responses by id, so calls from multiple goroutines
// can share one connection.
package wsstore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	gorilla "github.com/gorilla/websocket"

	"github.com/docref/docref.go/internal/codec"
	"github.com/docref/docref.go/internal/rand"
	"github.com/docref/docref.go/pkg/logger"
	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
)

const (
	requestIDLength = 16

	// DefaultTimeout bounds the wait for a response after a request
	// was written. Set WithTimeout(0) to rely on context deadlines
	// instead.
	DefaultTimeout = 30 * time.Second
)

// DefaultDialer is the gorilla dialer used by Connect. It mirrors
// gorilla's default with compression enabled and the cbor subprotocol.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
	Subprotocols:      []string{"cbor"},
}

type Store struct {
	baseURL string
	timeout time.Duration
	logger  logger.Logger

	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler

	conn     *gorilla.Conn
	connLock sync.Mutex

	responseChannels     map[string]chan store.RPCResponse
	responseChannelsLock sync.RWMutex

	closeChan chan struct{}
	closeOnce sync.Once
}

var _ store.Driver = (*Store)(nil)

type Option func(*Store)

func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
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

// New returns an unconnected Store for the given base URL, e.g.
// "ws://localhost:8000". Call Connect before use.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:          baseURL,
		timeout:          DefaultTimeout,
		logger:           logger.New(os.Stderr),
		marshaler:        models.CborMarshaler{},
		unmarshaler:      models.CborUnmarshaler{},
		responseChannels: make(map[string]chan store.RPCResponse),
		closeChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Connect(ctx context.Context) error {
	conn, res, err := DefaultDialer.DialContext(ctx, s.baseURL+"/rpc", nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", store.ErrUnavailable, s.baseURL, err)
	}
	defer res.Body.Close()

	s.conn = conn
	go s.readLoop()

	s.logger.Debug("connected", "url", s.baseURL)
	return nil
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

// Close signals in-flight calls, sends a close frame and tears the
// connection down. Safe to call more than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeChan)

		if s.conn == nil {
			return
		}

		s.connLock.Lock()
		defer s.connLock.Unlock()

		writeErr := s.conn.WriteMessage(
			gorilla.CloseMessage,
			gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""),
		)
		closeErr := s.conn.Close()

		if writeErr != nil {
			err = writeErr
		} else {
			err = closeErr
		}
	})
	return err
}

func (s *Store) send(ctx context.Context, method string, params ...any) (cbor.RawMessage, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("%w: not connected", store.ErrUnavailable)
	}

	id := rand.String(requestIDLength)

	ch, err := s.createResponseChannel(id)
	if err != nil {
		return nil, err
	}
	defer s.removeResponseChannel(id)

	payload, err := s.marshaler.Marshal(store.RPCRequest{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	s.connLock.Lock()
	writeErr := s.conn.WriteMessage(gorilla.BinaryMessage, payload)
	s.connLock.Unlock()
	if writeErr != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, writeErr)
	}

	var timeoutCh <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeoutCh:
		return nil, fmt.Errorf("%s: %w", method, store.ErrTimeout)
	case <-s.closeChan:
		return nil, fmt.Errorf("%w: connection closed", store.ErrUnavailable)
	case res := <-ch:
		if res.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, res.Error.Err())
		}
		return res.Result, nil
	}
}

func (s *Store) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeChan:
			default:
				s.logger.Error("connection lost", "error", err.Error())
				s.Close()
			}
			return
		}

		var res store.RPCResponse
		if err := s.unmarshaler.Unmarshal(data, &res); err != nil {
			s.logger.Error("malformed response", "error", err.Error())
			continue
		}

		ch, ok := s.getResponseChannel(res.ID)
		if !ok {
			// Sender gave up already, likely a timeout.
			s.logger.Warn("unexpected response id", "id", res.ID)
			continue
		}
		ch <- res
	}
}

func (s *Store) createResponseChannel(id string) (chan store.RPCResponse, error) {
	s.responseChannelsLock.Lock()
	defer s.responseChannelsLock.Unlock()

	if _, ok := s.responseChannels[id]; ok {
		return nil, fmt.Errorf("request id already in use: %v", id)
	}

	// Buffered so the read loop never blocks on a caller that timed
	// out between lookup and send.
	ch := make(chan store.RPCResponse, 1)
	s.responseChannels[id] = ch

	return ch, nil
}

func (s *Store) removeResponseChannel(id string) {
	s.responseChannelsLock.Lock()
	defer s.responseChannelsLock.Unlock()
	delete(s.responseChannels, id)
}

func (s *Store) getResponseChannel(id string) (chan store.RPCResponse, bool) {
	s.responseChannelsLock.RLock()
	defer s.responseChannelsLock.RUnlock()
	ch, ok := s.responseChannels[id]
	return ch, ok
}
