package wsrelay

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// Handler answers one Prepare, the same shape as sender.RequestPipeline's
// single method (duck-typed here to avoid an import cycle: sender doesn't
// need to know wsrelay exists).
type Handler interface {
	HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error)
}

// Server upgrades one HTTP connection to a websocket and answers every
// framed Prepare it receives by delegating to handler, writing each reply
// back tagged with its request id. It processes requests concurrently,
// matching the sender engine's own concurrent per-packet dispatch, with
// one read loop and one mutex-guarded write path per connection.
type Server struct {
	upgrader websocket.Upgrader
	handler  Handler
	writeMu  sync.Mutex
}

// NewServer builds a Server that answers every request with handler.
func NewServer(handler Handler) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler: handler,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsrelay: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var wg sync.WaitGroup
	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		id, from, prepare, decErr := decodeRequestFrame(frame)
		if decErr != nil {
			log.Printf("wsrelay: %v", decErr)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleOne(r.Context(), conn, id, from, prepare)
		}()
	}
	wg.Wait()
}

func (s *Server) handleOne(ctx context.Context, conn *websocket.Conn, id uint64, from ilp.Address, prepare *ilp.Prepare) {
	fulfill, reject, err := s.handler.HandleRequest(ctx, from, prepare)

	var frame []byte
	switch {
	case err != nil:
		frame = encodeResponseFrame(id, kindError, []byte(err.Error()))
	case fulfill != nil:
		payload, encErr := fulfill.Encode()
		if encErr != nil {
			frame = encodeResponseFrame(id, kindError, []byte(encErr.Error()))
			break
		}
		frame = encodeResponseFrame(id, kindFulfill, payload)
	case reject != nil:
		payload, encErr := reject.Encode()
		if encErr != nil {
			frame = encodeResponseFrame(id, kindError, []byte(encErr.Error()))
			break
		}
		frame = encodeResponseFrame(id, kindReject, payload)
	default:
		frame = encodeResponseFrame(id, kindError, []byte("handler returned neither fulfill nor reject"))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		log.Printf("wsrelay: write failed: %v", err)
	}
}
