package message

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	midsec "CommLink/middleware/security"
	"CommLink/tools/errs"
)

type fakeStore struct {
	mu        sync.Mutex
	inserted  []*Message
	insertErr error

	statusSender string
	statusErr    error

	history    []*Message
	historyErr error
}

func (f *fakeStore) Insert(_ context.Context, m *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	m.ID = "9001"
	m.Status = StatusSent
	m.CreateTime = 1700000000000
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeStore) UpdateMessageStatus(_ context.Context, messageID, status string) (string, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.statusSender, nil
}

func (f *fakeStore) History(_ context.Context, a, b string, limit int64) ([]*Message, error) {
	return f.history, f.historyErr
}

// asUser fakes the auth middleware by planting the caller ID directly.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(midsec.CtxUserIDKey, userID)
		c.Next()
	}
}

func newMessageRouter(t *testing.T, store *fakeStore, dispatch func(*Message), caller string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handler{Store: store, Dispatch: dispatch}
	r := gin.New()
	r.POST("/messages/send/:id", asUser(caller), h.HandleSend)
	r.GET("/messages/:id", asUser(caller), h.HandleHistory)
	r.POST("/messages/read/:id", asUser(caller), h.HandleRead)
	return r
}

func TestHandleSendPersistsThenDispatches(t *testing.T) {
	store := &fakeStore{}
	var dispatched []*Message
	r := newMessageRouter(t, store, func(m *Message) { dispatched = append(dispatched, m) }, "A")

	req := httptest.NewRequest(http.MethodPost, "/messages/send/B", strings.NewReader(`{"text":"hi"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "9001", got.ID)
	require.Equal(t, "A", got.SenderID)
	require.Equal(t, "B", got.ReceiverID)
	require.Equal(t, StatusSent, got.Status)

	// the dispatched message is the stored one, durable id included
	require.Len(t, dispatched, 1)
	require.Equal(t, "9001", dispatched[0].ID)
}

func TestHandleSendInsertFailureSkipsDispatch(t *testing.T) {
	store := &fakeStore{insertErr: errs.ErrArgs.WrapMsg("receiver required")}
	dispatched := 0
	r := newMessageRouter(t, store, func(*Message) { dispatched++ }, "A")

	req := httptest.NewRequest(http.MethodPost, "/messages/send/B", strings.NewReader(`{"text":"hi"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, dispatched, "nothing undurable reaches delivery")
}

func TestHandleSendUnauthenticated(t *testing.T) {
	store := &fakeStore{}
	r := newMessageRouter(t, store, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/messages/send/B", strings.NewReader(`{"text":"hi"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, store.inserted)
}

func TestHandleHistory(t *testing.T) {
	store := &fakeStore{history: []*Message{
		{ID: "1", SenderID: "A", ReceiverID: "B", Text: "hi", CreateTime: 1},
		{ID: "2", SenderID: "B", ReceiverID: "A", Text: "yo", CreateTime: 2},
	}}
	r := newMessageRouter(t, store, nil, "A")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/B", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var got []*Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
}

func TestHandleHistoryEmptyIsArray(t *testing.T) {
	r := newMessageRouter(t, &fakeStore{}, nil, "A")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/B", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestHandleRead(t *testing.T) {
	store := &fakeStore{statusSender: "A"}
	r := newMessageRouter(t, store, nil, "B")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages/read/9001", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "9001", got["messageId"])
	require.Equal(t, "A", got["senderId"])
	require.Equal(t, StatusRead, got["status"])
}

func TestHandleReadNotFound(t *testing.T) {
	store := &fakeStore{statusErr: errs.ErrRecordNotFound.WrapMsg("no such message")}
	r := newMessageRouter(t, store, nil, "B")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages/read/9001", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
}
