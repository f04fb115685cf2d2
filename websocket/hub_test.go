package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeConn struct {
	got    chan Event
	fail   bool
	closed chan struct{}
}

func newFakeConn(fail bool) *fakeConn {
	return &fakeConn{got: make(chan Event, 4), fail: fail, closed: make(chan struct{})}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.got <- v.(Event)
	return nil
}

func (f *fakeConn) Close() error {
	close(f.closed)
	return nil
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func TestHubDeliversToEveryConnectionOfUser(t *testing.T) {
	h := runHub(t)
	alice, bob := uuid.New(), uuid.New()
	tab1, tab2, other := newFakeConn(false), newFakeConn(false), newFakeConn(false)
	h.Register(&Client{UserID: alice, Conn: tab1})
	h.Register(&Client{UserID: alice, Conn: tab2})
	h.Register(&Client{UserID: bob, Conn: other})

	h.Publish(alice, EventAttemptGraded, map[string]float64{"score": 8})

	for i, conn := range []*fakeConn{tab1, tab2} {
		select {
		case ev := <-conn.got:
			if ev.Type != EventAttemptGraded {
				t.Fatalf("conn %d got %q", i, ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("conn %d received nothing", i)
		}
	}
	select {
	case ev := <-other.got:
		t.Fatalf("other user received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsFailingConnection(t *testing.T) {
	h := runHub(t)
	user := uuid.New()
	broken := newFakeConn(true)
	h.Register(&Client{UserID: user, Conn: broken})

	h.Publish(user, EventCertificateIssued, nil)

	select {
	case <-broken.closed:
	case <-time.After(time.Second):
		t.Fatal("failing connection was not closed")
	}
	deadline := time.Now().Add(time.Second)
	for h.Connections(user) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("failing connection still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUnregister(t *testing.T) {
	h := NewHub()
	user := uuid.New()
	c := &Client{UserID: user, Conn: newFakeConn(false)}
	h.Register(c)
	if h.Connections(user) != 1 {
		t.Fatal("expected one connection")
	}
	h.Unregister(c)
	h.Unregister(c)
	if h.Connections(user) != 0 {
		t.Fatal("expected no connections")
	}
}
