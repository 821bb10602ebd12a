package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type statusCall struct {
	MessageID string
	Status    string
}

type fakeStatusStore struct {
	mu     sync.Mutex
	calls  []statusCall
	sender string
	err    error
}

func (f *fakeStatusStore) UpdateMessageStatus(_ context.Context, messageID, status string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, statusCall{MessageID: messageID, Status: status})
	return f.sender, f.err
}

func (f *fakeStatusStore) Calls() []statusCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]statusCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func recvFrame(t *testing.T, c *Client, timeout time.Duration) *Frame {
	t.Helper()
	select {
	case payload := <-c.Send:
		f, err := ParseFrame(payload)
		require.NoError(t, err)
		return f
	case <-time.After(timeout):
		t.Fatalf("no frame within %v", timeout)
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client, wait time.Duration) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected frame: %s", payload)
	case <-time.After(wait):
	}
}

func mustFrame(t *testing.T, raw string) *Frame {
	t.Helper()
	f, err := ParseFrame([]byte(raw))
	require.NoError(t, err)
	return f
}

func newRouterFixture(t *testing.T) (*Registry, *Router, *fakeStatusStore) {
	t.Helper()
	reg := NewRegistry()
	store := &fakeStatusStore{}
	return reg, NewRouter(reg, store), store
}

func TestRouteTypingRelabeled(t *testing.T) {
	reg, router, _ := newRouterFixture(t)
	a := NewClient("conn1", "A", nil, 8)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("A", a)
	reg.Register("B", b)

	router.Route(context.Background(), a, mustFrame(t, `{"event":"typing","data":{"userId":"A","receiverId":"B"}}`))

	f := recvFrame(t, b, time.Second)
	require.Equal(t, EventUserTyping, f.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	require.Equal(t, "A", data["userId"])

	// exactly one delivery, and only to B
	assertNoFrame(t, b, 20*time.Millisecond)
	assertNoFrame(t, a, 20*time.Millisecond)
}

func TestRouteStopTypingRelabeled(t *testing.T) {
	reg, router, _ := newRouterFixture(t)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("B", b)

	router.Route(context.Background(), nil, mustFrame(t, `{"event":"stopTyping","data":{"receiverId":"B"}}`))

	f := recvFrame(t, b, time.Second)
	require.Equal(t, EventUserStoppedTyping, f.Event)
}

func TestRouteNewMessageVerbatim(t *testing.T) {
	reg, router, _ := newRouterFixture(t)
	a := NewClient("conn1", "A", nil, 8)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("A", a)
	reg.Register("B", b)

	router.Route(context.Background(), a, mustFrame(t, `{"event":"newMessage","data":{"receiverId":"B","text":"hi"}}`))

	f := recvFrame(t, b, time.Second)
	require.Equal(t, EventNewMessage, f.Event)

	var data map[string]any
	require.NoError(t, json.Unmarshal(f.Data, &data))
	require.Equal(t, "B", data["receiverId"])
	require.Equal(t, "hi", data["text"])
}

func TestRouteOfflineRecipientDropped(t *testing.T) {
	reg, router, _ := newRouterFixture(t)
	a := NewClient("conn1", "A", nil, 8)
	reg.Register("A", a)

	// nobody named B is registered; nothing is delivered, nothing blows up
	router.Route(context.Background(), a, mustFrame(t, `{"event":"newMessage","data":{"receiverId":"B","text":"hi"}}`))
	router.Route(context.Background(), a, mustFrame(t, `{"event":"typing","data":{"userId":"A","receiverId":"B"}}`))

	assertNoFrame(t, a, 20*time.Millisecond)
}

func TestRouteMissingReceiverFailsClosed(t *testing.T) {
	reg, router, _ := newRouterFixture(t)
	a := NewClient("conn1", "A", nil, 8)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("A", a)
	reg.Register("B", b)

	router.Route(context.Background(), a, mustFrame(t, `{"event":"newMessage","data":{"text":"hi"}}`))
	router.Route(context.Background(), a, mustFrame(t, `{"event":"typing","data":{"userId":"A"}}`))
	router.Route(context.Background(), a, mustFrame(t, `{"event":"stopTyping","data":{}}`))

	assertNoFrame(t, a, 20*time.Millisecond)
	assertNoFrame(t, b, 20*time.Millisecond)
}

func TestRouteUnknownEventIgnored(t *testing.T) {
	reg, router, _ := newRouterFixture(t)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("B", b)

	router.Route(context.Background(), nil, mustFrame(t, `{"event":"selfDestruct","data":{"receiverId":"B"}}`))

	assertNoFrame(t, b, 20*time.Millisecond)
}

func TestRouteMessageReadTravelsBackward(t *testing.T) {
	reg, router, store := newRouterFixture(t)
	store.sender = "A"

	a := NewClient("conn1", "A", nil, 8)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("A", a)
	reg.Register("B", b)

	// B read message 42; the receipt goes back to the original sender A
	router.Route(context.Background(), b, mustFrame(t, `{"event":"messageRead","data":{"messageId":42,"receiverId":"B"}}`))

	f := recvFrame(t, a, time.Second)
	require.Equal(t, EventMessageRead, f.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	require.Equal(t, "42", data["messageId"])

	require.Equal(t, []statusCall{{MessageID: "42", Status: "read"}}, store.Calls())
	assertNoFrame(t, b, 20*time.Millisecond)
}

func TestRouteMessageReadSenderOffline(t *testing.T) {
	reg, router, store := newRouterFixture(t)
	store.sender = "A" // A is not connected

	b := NewClient("conn2", "B", nil, 8)
	reg.Register("B", b)

	router.Route(context.Background(), b, mustFrame(t, `{"event":"messageRead","data":{"messageId":"42","receiverId":"B"}}`))

	// the status update still happened exactly once
	require.Len(t, store.Calls(), 1)
	assertNoFrame(t, b, 20*time.Millisecond)
}

func TestRouteMessageReadMissingID(t *testing.T) {
	reg, router, store := newRouterFixture(t)
	b := NewClient("conn2", "B", nil, 8)
	reg.Register("B", b)

	router.Route(context.Background(), b, mustFrame(t, `{"event":"messageRead","data":{"receiverId":"B"}}`))

	require.Empty(t, store.Calls(), "no persistence call for a malformed receipt")
	assertNoFrame(t, b, 20*time.Millisecond)
}
