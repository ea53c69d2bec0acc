package replica

import (
	"errors"
	"strings"

	"github.com/automerge/automerge-go"
)

// ErrSyncDidNotSettle is returned when two peers keep exchanging messages past
// the round limit.
var ErrSyncDidNotSettle = errors.New("sync did not settle")

const maxSyncRounds = 64

// Peer tracks what one remote replica is known to have. It is safe to use
// alongside local commits: every call takes the replica lock.
type Peer struct {
	r     *Replica
	state *automerge.SyncState
}

func (r *Replica) NewPeer() *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Peer{r: r, state: automerge.NewSyncState(r.doc)}
}

// Generate returns the next message for the remote, if there is anything to
// say.
func (p *Peer) Generate() ([]byte, bool) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	msg, valid := p.state.GenerateMessage()
	if !valid || msg == nil {
		return nil, false
	}
	return msg.Bytes(), true
}

// Receive applies a message from the remote. Subscribers are notified and the
// file is saved when the message brought new changes.
func (p *Peer) Receive(raw []byte) error {
	p.r.mu.Lock()
	before := strings.Join(headStrings(p.r.doc.Heads()), ",")
	if _, err := p.state.ReceiveMessage(raw); err != nil {
		p.r.mu.Unlock()
		return err
	}
	changed := strings.Join(headStrings(p.r.doc.Heads()), ",") != before
	var err error
	if changed {
		err = p.r.persistLocked()
	}
	p.r.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		p.r.notifyCurrent()
	}
	return nil
}

// SyncWith runs the sync protocol between two in-process replicas until
// neither side has anything left to send.
func (r *Replica) SyncWith(other *Replica) error {
	a, b := r.NewPeer(), other.NewPeer()
	for round := 0; round < maxSyncRounds; round++ {
		sent := false
		for {
			msg, ok := a.Generate()
			if !ok {
				break
			}
			sent = true
			if err := b.Receive(msg); err != nil {
				return err
			}
		}
		for {
			msg, ok := b.Generate()
			if !ok {
				break
			}
			sent = true
			if err := a.Receive(msg); err != nil {
				return err
			}
		}
		if !sent {
			return nil
		}
	}
	return ErrSyncDidNotSettle
}
