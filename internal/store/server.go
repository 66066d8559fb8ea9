package store

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"redraft/engine/internal/diff"
	"redraft/engine/internal/logging"
	docsync "redraft/engine/internal/sync"
)

const defaultDoc = "default"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// The store is a local development tool; it accepts any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg docsync.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Server hosts the sync wire protocol: one WebSocket endpoint per document,
// snapshot persistence, and fan-out to every other client of the same
// document.
type Server struct {
	db     *DB
	logger *slog.Logger

	mu   sync.Mutex
	docs map[string]map[string]*client
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(db *DB, opts ...ServerOption) *Server {
	s := &Server{
		db:     db,
		logger: logging.Nop(),
		docs:   make(map[string]map[string]*client),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /history/{doc}", s.handleHistory)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/ws/{doc}", s.handleWS)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "connections": s.connectionCount()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc")
	revisions, err := s.db.History(docID, 0)
	if err != nil {
		s.logger.Error("store.history_failed", "doc_id", docID, "error", err.Error())
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"doc_id": docID, "revisions": revisions})
}

// handleWS owns one client connection: send init, then relay updates until
// the connection dies.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc")
	if docID == "" {
		docID = defaultDoc
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("store.upgrade_failed", "error", err.Error())
		return
	}
	cl := &client{id: uuid.NewString(), conn: conn}
	s.register(docID, cl)
	s.logger.Info("store.client_connected", "doc_id", docID, "conn_id", cl.id)
	defer func() {
		s.unregister(docID, cl)
		conn.Close()
		s.logger.Info("store.client_disconnected", "doc_id", docID, "conn_id", cl.id)
	}()

	snapshot, _, err := s.db.Load(docID)
	if err != nil {
		s.logger.Error("store.load_failed", "doc_id", docID, "error", err.Error())
		return
	}
	if err := cl.write(docsync.Message{Type: docsync.MessageInit, Data: snapshot}); err != nil {
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	done := make(chan struct{})
	defer close(done)
	go pingClient(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(docID, cl, data)
	}
}

func pingClient(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(docID string, from *client, data []byte) {
	var msg docsync.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("store.bad_message", "doc_id", docID, "conn_id", from.id, "error", err.Error())
		return
	}
	switch msg.Type {
	case docsync.MessageUpdate:
		s.applyUpdate(docID, from, msg.Data)
	case docsync.MessageChat:
		s.logger.Info("store.chat_received", "doc_id", docID, "conn_id", from.id, "message", msg.Data)
	default:
		s.logger.Warn("store.unknown_message_type", "doc_id", docID, "type", msg.Type)
	}
}

// applyUpdate persists the snapshot and fans it out to every other client of
// the document. Last write wins; there is no merge.
func (s *Server) applyUpdate(docID string, from *client, snapshot string) {
	before, _, err := s.db.Load(docID)
	if err != nil {
		s.logger.Error("store.load_failed", "doc_id", docID, "error", err.Error())
		return
	}
	if err := s.db.Save(docID, snapshot); err != nil {
		s.logger.Error("store.save_failed", "doc_id", docID, "error", err.Error())
		return
	}
	added, removed := diff.Stats(before, snapshot)
	s.logger.Info("store.update",
		"doc_id", docID,
		"conn_id", from.id,
		"bytes", len(snapshot),
		"added", added,
		"removed", removed)
	for _, peer := range s.peers(docID, from.id) {
		if err := peer.write(docsync.Message{Type: docsync.MessageUpdate, Data: snapshot}); err != nil {
			s.logger.Warn("store.fanout_failed", "doc_id", docID, "conn_id", peer.id, "error", err.Error())
			peer.conn.Close()
		}
	}
}

func (s *Server) register(docID string, cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clients, ok := s.docs[docID]
	if !ok {
		clients = make(map[string]*client)
		s.docs[docID] = clients
	}
	clients[cl.id] = cl
}

func (s *Server) unregister(docID string, cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clients := s.docs[docID]
	delete(clients, cl.id)
	if len(clients) == 0 {
		delete(s.docs, docID)
	}
}

// peers snapshots the other clients of a document so fan-out writes happen
// outside the registry lock.
func (s *Server) peers(docID, exceptID string) []*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	var peers []*client
	for id, cl := range s.docs[docID] {
		if id != exceptID {
			peers = append(peers, cl)
		}
	}
	return peers
}

func (s *Server) connectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, clients := range s.docs {
		count += len(clients)
	}
	return count
}
