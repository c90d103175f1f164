package wsrelay

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

// echoHandler fulfills every Prepare, echoing its data back as proof the
// round trip carried the right bytes.
type echoHandler struct {
	mu    sync.Mutex
	count int
}

func (h *echoHandler) HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error) {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	return &ilp.Fulfill{Data: prepare.Data}, nil, nil
}

type rejectHandler struct{}

func (rejectHandler) HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error) {
	return nil, &ilp.Reject{Code: ilp.CodeBadRequest, TriggeredBy: ilp.Address("g.relay"), Message: "nope"}, nil
}

func testPrepare(amount uint64, data []byte) *ilp.Prepare {
	return &ilp.Prepare{
		Destination:        ilp.Address("g.bob"),
		Amount:              amount,
		ExpiresAt:           time.Now().Add(30 * time.Second),
		ExecutionCondition:  [32]byte{1, 2, 3},
		Data:                data,
	}
}

func dialTestServer(t *testing.T, handler Handler) (*Client, func()) {
	t.Helper()
	httpServer := httptest.NewServer(NewServer(handler))
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")

	client, err := Dial(wsURL)
	require.NoError(t, err)

	return client, func() {
		client.Close()
		httpServer.Close()
	}
}

func TestClientServerFulfillRoundTrip(t *testing.T) {
	client, cleanup := dialTestServer(t, &echoHandler{})
	defer cleanup()

	fulfill, reject, err := client.HandleRequest(context.Background(), ilp.Address("g.alice"), testPrepare(100, []byte("payload")))
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Equal(t, []byte("payload"), fulfill.Data)
}

func TestClientServerRejectRoundTrip(t *testing.T) {
	client, cleanup := dialTestServer(t, rejectHandler{})
	defer cleanup()

	fulfill, reject, err := client.HandleRequest(context.Background(), ilp.Address("g.alice"), testPrepare(100, []byte("x")))
	require.NoError(t, err)
	require.Nil(t, fulfill)
	require.Equal(t, ilp.CodeBadRequest, reject.Code)
}

func TestClientConcurrentRequestsCorrelateReplies(t *testing.T) {
	handler := &echoHandler{}
	client, cleanup := dialTestServer(t, handler)
	defer cleanup()

	const n = 8
	results := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := []byte{byte(i)}
			fulfill, _, err := client.HandleRequest(context.Background(), ilp.Address("g.alice"), testPrepare(uint64(i), payload))
			require.NoError(t, err)
			results[i] = fulfill.Data
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.Equal(t, []byte{byte(i)}, results[i])
	}
	require.Equal(t, n, handler.count)
}

func TestClientHandleRequestRespectsContextCancellation(t *testing.T) {
	blocking := blockingHandler{release: make(chan struct{})}
	client, cleanup := dialTestServer(t, blocking)
	defer cleanup()
	defer close(blocking.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := client.HandleRequest(ctx, ilp.Address("g.alice"), testPrepare(1, []byte("x")))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingHandler struct {
	release chan struct{}
}

func (b blockingHandler) HandleRequest(ctx context.Context, from ilp.Address, prepare *ilp.Prepare) (*ilp.Fulfill, *ilp.Reject, error) {
	<-b.release
	return &ilp.Fulfill{Data: prepare.Data}, nil, nil
}
