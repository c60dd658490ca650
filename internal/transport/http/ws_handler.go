package http

import (
	"context"
	"encoding/json"
	"net/http"

	"dailyquest-service/internal/domain"
	"github.com/gorilla/websocket"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// jsonConn is the part of *websocket.Conn the relay uses.
type jsonConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

// serveGroupWS streams a group's messages to a member and accepts
// "message" and "read" frames from them. Membership is checked before the upgrade.
func (s *Server) serveGroupWS(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := currentUser(r)
	ctx := r.Context()

	updates, cancel, err := s.svc.Groups.Subscribe(ctx, userID, groupID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "group_id", groupID, "error", err)
		return
	}
	defer conn.Close()
	s.relay(ctx, conn, updates, userID, groupID)
}

// relay runs until the client stops reading or writing.
func (s *Server) relay(ctx context.Context, conn jsonConn, updates <-chan domain.Message, userID, groupID int64) {
	log := s.log.With("group_id", groupID, "user_id", userID)

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write failed", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case msg, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "message", Payload: msg}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// push reports false once the writer has stopped.
	push := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}
	reply := func(text string) bool {
		return push(outboundMessage{Type: "error", Payload: errorPayload{Message: text}})
	}

	ok := push(outboundMessage{Type: "joined", Payload: map[string]int64{"groupId": groupID}})
	for ok {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read ended", "error", err)
			}
			break
		}
		switch inbound.Type {
		case "message":
			var req messageRequest
			if err := json.Unmarshal(inbound.Payload, &req); err != nil {
				ok = reply("invalid message payload")
				continue
			}
			// the stored message comes back through the subscription
			if _, err := s.svc.Groups.PostMessage(ctx, userID, groupID, req.Text, req.ReplyToID); err != nil {
				_, msg := statusFor(err)
				ok = reply(msg)
			}
		case "read":
			if err := s.svc.Groups.MarkRead(ctx, userID, groupID); err != nil {
				_, msg := statusFor(err)
				ok = reply(msg)
			}
		default:
			ok = reply("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
