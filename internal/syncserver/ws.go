package syncserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"todoboard/internal/replica"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Frames of the round protocol. Within a round each side sends its pending
// sync messages as binary frames followed by frameEnd; the client starts every
// round and closes with frameDone once a round passes with nothing sent either
// way.
const (
	frameEnd  = "end"
	frameDone = "done"
)

const (
	maxRounds    = 32
	frameTimeout = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.WithField("remote", r.RemoteAddr)
	peer := s.rep.NewPeer()
	for round := 0; round < maxRounds; round++ {
		recv, done, err := receiveRound(conn, peer)
		if err != nil {
			log.WithError(err).Warn("sync aborted")
			return
		}
		if done {
			log.WithField("rounds", round).Debug("sync complete")
			return
		}
		sent, err := sendRound(conn, peer)
		if err != nil {
			log.WithError(err).Warn("sync aborted")
			return
		}
		log.WithFields(logrus.Fields{"round": round, "received": recv, "sent": sent}).Debug("sync round")
	}
	log.Warn("sync did not settle")
}

// sendRound writes every pending message then the end-of-round frame.
func sendRound(conn *websocket.Conn, peer *replica.Peer) (int, error) {
	n := 0
	for {
		msg, ok := peer.Generate()
		if !ok {
			break
		}
		_ = conn.SetWriteDeadline(time.Now().Add(frameTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return n, fmt.Errorf("write message: %w", err)
		}
		n++
	}
	_ = conn.SetWriteDeadline(time.Now().Add(frameTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frameEnd)); err != nil {
		return n, fmt.Errorf("write end of round: %w", err)
	}
	return n, nil
}

// receiveRound applies binary frames until the end-of-round frame. done is set
// when the remote closes the session instead.
func receiveRound(conn *websocket.Conn, peer *replica.Peer) (n int, done bool, err error) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(frameTimeout))
		mt, p, err := conn.ReadMessage()
		if err != nil {
			return n, false, fmt.Errorf("read message: %w", err)
		}
		switch mt {
		case websocket.BinaryMessage:
			if err := peer.Receive(p); err != nil {
				return n, false, fmt.Errorf("receive message: %w", err)
			}
			n++
		case websocket.TextMessage:
			switch string(p) {
			case frameEnd:
				return n, false, nil
			case frameDone:
				return n, true, nil
			default:
				return n, false, fmt.Errorf("unexpected frame %q", string(p))
			}
		}
	}
}
