package gameserver

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

type fakeConn struct {
	id       string
	mu       sync.Mutex
	frames   []Frame
	inbound  []string
	pos      int
	failSend bool
	closes   int
}

func newFakeConn(id string, inbound ...string) *fakeConn {
	return &fakeConn{id: id, inbound: inbound}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("send failed")
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) ReadText() (string, error) {
	if f.pos >= len(f.inbound) {
		return "", io.EOF
	}
	s := f.inbound[f.pos]
	f.pos++
	return s, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeConn) sent() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func TestRegistryAttachOrder(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")

	r.Attach("u1", a)
	r.Attach("u1", b)
	r.Attach("u1", c)

	channels := r.Channels("u1")
	require.Len(t, channels, 3)
	assert.Equal(t, "a", channels[0].ID())
	assert.Equal(t, "b", channels[1].ID())
	assert.Equal(t, "c", channels[2].ID())
}

func TestRegistryDetachIdempotent(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	a := newFakeConn("a")

	r.Attach("u1", a)
	assert.True(t, r.Detach("u1", a))
	assert.False(t, r.Detach("u1", a))
	assert.False(t, r.Detach("unknown", a))
}

func TestRegistryRemovesEmptyUsers(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	a := newFakeConn("a")

	r.Attach("u1", a)
	assert.Equal(t, []string{"u1"}, r.Users())

	r.Detach("u1", a)
	assert.Empty(t, r.Users())
	assert.Equal(t, 0, r.ChannelCount("u1"))
}

func TestRegistryChannelsReturnsSnapshot(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	a, b := newFakeConn("a"), newFakeConn("b")
	r.Attach("u1", a)
	r.Attach("u1", b)

	snapshot := r.Channels("u1")
	r.Detach("u1", a)

	assert.Len(t, snapshot, 2, "snapshot must not change after detach")
	assert.Equal(t, 1, r.ChannelCount("u1"))
}

func TestRegistryUsersSorted(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Attach("zoe", newFakeConn("z"))
	r.Attach("adam", newFakeConn("a"))
	assert.Equal(t, []string{"adam", "zoe"}, r.Users())
}

func TestPropertyRegistryNoEmptyUsers(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := NewRegistry(zaptest.NewLogger(t))
		conns := map[string]*fakeConn{}

		ops := rapid.IntRange(1, 100).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			user := fmt.Sprintf("user-%d", rapid.IntRange(0, 4).Draw(rt, "user"))
			connID := fmt.Sprintf("conn-%d", rapid.IntRange(0, 9).Draw(rt, "conn"))
			conn, ok := conns[connID]
			if !ok {
				conn = newFakeConn(connID)
				conns[connID] = conn
			}

			if rapid.Bool().Draw(rt, "attach") {
				r.Attach(user, conn)
			} else {
				r.Detach(user, conn)
			}

			for _, u := range r.Users() {
				if r.ChannelCount(u) == 0 {
					rt.Fatalf("user %s listed with zero channels", u)
				}
			}
		}
	})
}
