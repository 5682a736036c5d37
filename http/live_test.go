package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"claimguard/apperrors"
)

func TestLiveScore(t *testing.T) {
	c := fraudClassifier()
	srv := httptest.NewServer(newTestRouter(t, readyProvider(t, c), HandlersConfig{}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/score"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	messages := []string{`{"Age": 20}`, `{"Deductible": 350}`, `{"Sex": "Male"}`}
	for _, m := range messages {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatal(err)
		}
	}

	var replies []liveReply
	for range messages {
		var reply liveReply
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		replies = append(replies, reply)
	}

	if replies[0].Type != "result" || replies[0].Result == nil || !replies[0].Result.Fraud {
		t.Errorf("first reply = %+v", replies[0])
	}
	if replies[1].Type != "error" || replies[1].Error == nil || replies[1].Error.Code != apperrors.CodeInvalidRecord {
		t.Errorf("second reply = %+v", replies[1])
	}
	if replies[2].Type != "result" {
		t.Errorf("third reply = %+v", replies[2])
	}
	if got := c.calls.Load(); got != 2 {
		t.Errorf("classifier called %d times, want 2", got)
	}
}

func TestLiveScoreUnavailable(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, missingProvider(t), HandlersConfig{}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/score", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	var reply liveReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != "error" || reply.Error == nil || !apperrors.IsUnavailable(reply.Error) {
		t.Errorf("reply = %+v", reply)
	}
}
