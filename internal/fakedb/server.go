// Package fakedb provides an in-process backend for driver tests. It
// serves the CBOR RPC protocol over both WebSocket and plain HTTP POST
// from a single handler, so the same httptest server exercises wsstore
// and httpstore. Documents live in a memstore behind the handler.
package fakedb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/fxamacker/cbor/v2"
	gorilla "github.com/gorilla/websocket"

	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
)

// wireRequest mirrors store.RPCRequest with params kept raw, so each
// parameter can be decoded to its expected type per method.
type wireRequest struct {
	ID     string            `cbor:"id"`
	Method string            `cbor:"method"`
	Params []cbor.RawMessage `cbor:"params"`
}

type Server struct {
	backend  store.Driver
	upgrader gorilla.Upgrader

	mu       sync.Mutex
	failNext bool
}

func New(backend store.Driver) *Server {
	return &Server{
		backend: backend,
		upgrader: gorilla.Upgrader{
			EnableCompression: true,
			Subprotocols:      []string{"cbor"},
		},
	}
}

// FailNext makes the server fail the next request without a valid
// answer: the WebSocket path drops the connection, the POST path
// answers 503. Used to exercise unavailability handling in drivers.
func (s *Server) FailNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = true
}

func (s *Server) takeFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := s.failNext
	s.failNext = false
	return failed
}

// ServeHTTP answers RPC over POST bodies, or upgrades to WebSocket when
// asked to.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if gorilla.IsWebSocketUpgrade(r) {
		s.serveWS(w, r)
		return
	}
	s.servePOST(w, r)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if s.takeFailure() {
			return
		}

		res := s.handle(r.Context(), data)
		payload, err := cbor.Marshal(res)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(gorilla.BinaryMessage, payload); err != nil {
			return
		}
	}
}

func (s *Server) servePOST(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.takeFailure() {
		http.Error(w, "injected failure", http.StatusServiceUnavailable)
		return
	}

	res := s.handle(r.Context(), body)
	payload, err := cbor.Marshal(res)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/cbor")
	w.Write(payload)
}

func (s *Server) handle(ctx context.Context, data []byte) store.RPCResponse {
	var req wireRequest
	if err := cbor.Unmarshal(data, &req); err != nil {
		return errResponse("", store.CodeBadRequest, "malformed request: "+err.Error())
	}

	switch req.Method {
	case store.MethodInsert:
		id, doc, err := recordParams(req.Params)
		if err != nil {
			return errResponse(req.ID, store.CodeBadRequest, err.Error())
		}
		return s.result(req.ID, nil, s.backend.Insert(ctx, id, doc))

	case store.MethodUpdate:
		id, doc, err := recordParams(req.Params)
		if err != nil {
			return errResponse(req.ID, store.CodeBadRequest, err.Error())
		}
		return s.result(req.ID, nil, s.backend.Update(ctx, id, doc))

	case store.MethodDelete:
		id, err := idParam(req.Params)
		if err != nil {
			return errResponse(req.ID, store.CodeBadRequest, err.Error())
		}
		return s.result(req.ID, nil, s.backend.Delete(ctx, id))

	case store.MethodFind:
		id, err := idParam(req.Params)
		if err != nil {
			return errResponse(req.ID, store.CodeBadRequest, err.Error())
		}
		doc, err := s.backend.FindByID(ctx, id)
		return s.result(req.ID, doc, err)

	case store.MethodQuery:
		table, field, value, err := queryParams(req.Params)
		if err != nil {
			return errResponse(req.ID, store.CodeBadRequest, err.Error())
		}
		docs, err := s.backend.QueryByField(ctx, table, field, value)
		if err != nil {
			return s.result(req.ID, nil, err)
		}
		raw := make([]cbor.RawMessage, len(docs))
		for i, doc := range docs {
			raw[i] = doc
		}
		encoded, err := cbor.Marshal(raw)
		return s.result(req.ID, encoded, err)

	default:
		return errResponse(req.ID, store.CodeBadRequest, "unknown method: "+req.Method)
	}
}

func (s *Server) result(id string, result []byte, err error) store.RPCResponse {
	switch {
	case err == nil:
		return store.RPCResponse{ID: id, Result: result}
	case errors.Is(err, store.ErrNotFound):
		return errResponse(id, store.CodeNotFound, err.Error())
	case errors.Is(err, store.ErrIDInUse):
		return errResponse(id, store.CodeIDInUse, err.Error())
	default:
		return errResponse(id, store.CodeInternal, err.Error())
	}
}

func errResponse(id string, code int, msg string) store.RPCResponse {
	return store.RPCResponse{ID: id, Error: &store.RPCError{Code: code, Message: msg}}
}

func idParam(params []cbor.RawMessage) (models.RecordID, error) {
	if len(params) < 1 {
		return models.RecordID{}, errors.New("missing record id parameter")
	}
	var id models.RecordID
	if err := cbor.Unmarshal(params[0], &id); err != nil {
		return models.RecordID{}, err
	}
	return id, nil
}

func recordParams(params []cbor.RawMessage) (models.RecordID, []byte, error) {
	id, err := idParam(params)
	if err != nil {
		return models.RecordID{}, nil, err
	}
	if len(params) < 2 {
		return models.RecordID{}, nil, errors.New("missing document parameter")
	}
	return id, params[1], nil
}

func queryParams(params []cbor.RawMessage) (table, field string, value []byte, err error) {
	if len(params) < 3 {
		return "", "", nil, errors.New("query expects table, field and value parameters")
	}
	if err := cbor.Unmarshal(params[0], &table); err != nil {
		return "", "", nil, err
	}
	if err := cbor.Unmarshal(params[1], &field); err != nil {
		return "", "", nil, err
	}
	return table, field, params[2], nil
}
