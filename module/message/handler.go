package message

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"CommLink/logger"
	midsec "CommLink/middleware/security"
	"CommLink/tools/errs"
)

// Store is what the HTTP surface needs from persistence; *MongoStore
// satisfies it, tests use a fake.
type Store interface {
	Insert(ctx context.Context, m *Message) error
	UpdateMessageStatus(ctx context.Context, messageID, status string) (senderID string, err error)
	History(ctx context.Context, a, b string, limit int64) ([]*Message, error)
}

// Handler wires the message routes. Dispatch runs after a successful
// persist — directly into the local delivery bridge, or onto the NATS
// subject when the deployment is multi-node.
type Handler struct {
	Store    Store
	Dispatch func(m *Message)
}

type sendReq struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// HandleSend implements POST /messages/send/:id.
// Persist first; only a durably stored message reaches the bridge.
func (h *Handler) HandleSend(c *gin.Context) {
	senderID := midsec.CallerID(c)
	receiverID := c.Param("id")
	if senderID == "" || receiverID == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("missing sender/receiver"))
		return
	}

	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	m := &Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      req.Image,
	}
	if err := h.Store.Insert(c.Request.Context(), m); err != nil {
		logger.Errorf("[message] insert failed sender=%s receiver=%s err=%v", senderID, receiverID, err)
		writeStoreError(c, err)
		return
	}

	if h.Dispatch != nil {
		h.Dispatch(m)
	}
	c.JSON(http.StatusCreated, m)
}

// HandleHistory implements GET /messages/:id — the full-history fetch
// that recovers whatever the best-effort realtime path dropped.
func (h *Handler) HandleHistory(c *gin.Context) {
	callerID := midsec.CallerID(c)
	otherID := c.Param("id")
	if callerID == "" || otherID == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("missing user ids"))
		return
	}

	msgs, err := h.Store.History(c.Request.Context(), callerID, otherID, 0)
	if err != nil {
		logger.Errorf("[message] history failed a=%s b=%s err=%v", callerID, otherID, err)
		writeStoreError(c, err)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

// HandleRead implements POST /messages/read/:id — the HTTP twin of the
// realtime messageRead event.
func (h *Handler) HandleRead(c *gin.Context) {
	messageID := c.Param("id")
	if messageID == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("missing message id"))
		return
	}
	senderID, err := h.Store.UpdateMessageStatus(c.Request.Context(), messageID, StatusRead)
	if err != nil {
		logger.Errorf("[message] mark read failed id=%s err=%v", messageID, err)
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": messageID, "senderId": senderID, "status": StatusRead})
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errs.ErrArgs.Is(err):
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
	case errs.ErrRecordNotFound.Is(err):
		c.JSON(http.StatusNotFound, errs.ErrRecordNotFound)
	default:
		c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
	}
}
