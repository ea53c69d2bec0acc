package syncserver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"todoboard/internal/replica"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type JoinResult struct {
	Rounds   int `json:"rounds"`
	Sent     int `json:"sent"`
	Received int `json:"received"`
}

// SyncURL turns a server address (host:port, http://..., ws://...) into the
// websocket sync endpoint.
func SyncURL(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("missing server address")
	}
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/sync"
	}
	return u.String(), nil
}

// Join syncs rep with the server at addr until both sides hold the same
// changes.
func Join(ctx context.Context, addr string, rep *replica.Replica, log logrus.FieldLogger) (JoinResult, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	u, err := SyncURL(addr)
	if err != nil {
		return JoinResult{}, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return JoinResult{}, fmt.Errorf("dial %s: %w", u, err)
	}
	defer conn.Close()

	var res JoinResult
	peer := rep.NewPeer()
	for res.Rounds < maxRounds {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Rounds++
		sent, err := sendRound(conn, peer)
		res.Sent += sent
		if err != nil {
			return res, err
		}
		recv, _, err := receiveRound(conn, peer)
		res.Received += recv
		if err != nil {
			return res, err
		}
		log.WithFields(logrus.Fields{"round": res.Rounds, "sent": sent, "received": recv}).Debug("sync round")
		if sent == 0 && recv == 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(frameTimeout))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(frameDone))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return res, nil
		}
	}
	return res, replica.ErrSyncDidNotSettle
}
