package serial

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemon/internal/errors"
	"telemon/internal/metrics"
	"telemon/internal/reactor"
	"telemon/internal/render"
	"telemon/util"
)

// ── helpers ──────────────────────────────────────────────────────────

func quietLogger() *util.Logger {
	l := util.NewLogger(0)
	l.SetOutput(&bytes.Buffer{})
	return l
}

func run(t *testing.T, r *reactor.Reactor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx))
}

type readResult struct {
	data string
	err  error
}

// scriptedPort replays reads in order, then blocks until closed.
type scriptedPort struct {
	reads  []readResult
	next   int
	once   sync.Once
	closed chan struct{}
}

func newScriptedPort(reads ...readResult) *scriptedPort {
	return &scriptedPort{reads: reads, closed: make(chan struct{})}
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	if p.next < len(p.reads) {
		rr := p.reads[p.next]
		p.next++
		return copy(b, rr.data), rr.err
	}
	<-p.closed
	return 0, os.ErrClosed
}

func (p *scriptedPort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

// hookWriter calls hook after every write.  Both run on the reactor.
type hookWriter struct {
	bytes.Buffer
	hook func()
}

func (w *hookWriter) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	if w.hook != nil {
		w.hook()
	}
	return n, err
}

// WriteString shadows the embedded Buffer's so io.WriteString still
// reaches hook.
func (w *hookWriter) WriteString(s string) (int, error) { return w.Write([]byte(s)) }

// ── Conn ─────────────────────────────────────────────────────────────

func TestConn_KeepsBytesAfterDelimiter(t *testing.T) {
	r := reactor.New()
	conn := NewConn(r, newScriptedPort(readResult{data: "5\n6"}), "fake")

	var lines []string
	require.NoError(t, conn.ReadLine(func(line []byte, err error) {
		require.NoError(t, err)
		lines = append(lines, string(line))
		assert.Equal(t, 1, conn.Buffered(), "trailing byte belongs to the next frame")
		conn.Cancel()
	}))

	run(t, r)
	assert.Equal(t, []string{"5"}, lines)
}

func TestConn_AtMostOneReadInFlight(t *testing.T) {
	r := reactor.New()
	conn := NewConn(r, newScriptedPort(), "fake")

	var got error
	require.NoError(t, conn.ReadLine(func(_ []byte, err error) { got = err }))
	assert.True(t, conn.InFlight())
	assert.ErrorIs(t, conn.ReadLine(func([]byte, error) {}), errors.ErrInFlight)

	r.Post(func() { conn.Cancel() })
	run(t, r)

	assert.ErrorIs(t, got, errors.ErrCanceled)
	assert.False(t, conn.InFlight())
}

func TestConn_FrameSplitAcrossReads(t *testing.T) {
	r := reactor.New()
	port := newScriptedPort(
		readResult{data: "10"},
		readResult{data: "23\n4"},
		readResult{data: "00\n"},
	)
	conn := NewConn(r, port, "fake")

	var lines []string
	var h func([]byte, error)
	h = func(line []byte, err error) {
		require.NoError(t, err)
		lines = append(lines, string(line))
		if len(lines) == 2 {
			conn.Cancel()
			return
		}
		require.NoError(t, conn.ReadLine(h))
	}
	require.NoError(t, conn.ReadLine(h))

	run(t, r)
	assert.Equal(t, []string{"1023", "400"}, lines)
}

func TestConn_BufferedLineDeliveredAsynchronously(t *testing.T) {
	r := reactor.New()
	conn := NewConn(r, newScriptedPort(readResult{data: "1\n2\n"}), "fake")

	var lines []string
	require.NoError(t, conn.ReadLine(func(line []byte, _ error) {
		lines = append(lines, string(line))
		called := false
		require.NoError(t, conn.ReadLine(func(line []byte, _ error) {
			called = true
			lines = append(lines, string(line))
			conn.Cancel()
		}))
		assert.False(t, called, "handler must not run inline")
	}))

	run(t, r)
	assert.Equal(t, []string{"1", "2"}, lines)
}

func TestConn_CancelIdempotent(t *testing.T) {
	r := reactor.New()
	conn := NewConn(r, newScriptedPort(), "fake")
	assert.NoError(t, conn.Cancel())
	assert.NoError(t, conn.Cancel())

	var got error
	require.NoError(t, conn.ReadLine(func(_ []byte, err error) { got = err }))
	run(t, r)
	assert.ErrorIs(t, got, errors.ErrPortClosed)
	assert.True(t, errors.IsConnectionLevel(got))
}

// latePort's Read blocks until Close and then still returns a frame,
// as a device can when data arrives while it is being closed.
type latePort struct {
	once     sync.Once
	closed   chan struct{}
	returned chan struct{}
}

func (p *latePort) Read(b []byte) (int, error) {
	<-p.closed
	defer close(p.returned)
	return copy(b, "7\n"), nil
}

func (p *latePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func TestConn_CancelDiscardsLateChunk(t *testing.T) {
	r := reactor.New()
	port := &latePort{closed: make(chan struct{}), returned: make(chan struct{})}
	conn := NewConn(r, port, "fake")

	var calls int
	var got error
	require.NoError(t, conn.ReadLine(func(_ []byte, err error) {
		calls++
		got = err
	}))
	r.Post(func() { conn.Cancel() })
	run(t, r)

	select {
	case <-port.returned:
	case <-time.After(3 * time.Second):
		t.Fatal("blocked read never returned")
	}
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, got, errors.ErrCanceled)
	assert.Zero(t, conn.Buffered(), "a chunk read after cancel must not reach the buffer")
}

// ── Reader ───────────────────────────────────────────────────────────

func TestReader_DecodesAndSkipsMalformed(t *testing.T) {
	r := reactor.New()
	pr, pw := io.Pipe()
	go func() {
		for _, frame := range []string{"1023\n", "abc\n", "3", "1\n", "0\n"} {
			pw.Write([]byte(frame)) //nolint:errcheck
		}
		pw.Close()
	}()

	var screen bytes.Buffer
	reader := NewReader(NewConn(r, pr, "pipe"), &screen, func() bool { return false }, quietLogger())
	reader.Metrics = metrics.New()
	reader.Start()

	run(t, r)

	want := render.Bar(64) + render.Bar(2) + render.Bar(1)
	assert.Equal(t, want, screen.String())
	assert.Equal(t, Stopped, reader.State())
	assert.ErrorIs(t, reader.Err(), io.EOF, "closed device ends the chain")

	snap := reader.Metrics.Snapshot()
	assert.Equal(t, int64(3), snap.FramesDecoded)
	assert.Equal(t, int64(1), snap.FramesMalformed)
	assert.Equal(t, int64(1), snap.ChannelFailures["serial"])
}

func TestReader_ShutdownStopsChain(t *testing.T) {
	r := reactor.New()
	port := newScriptedPort(readResult{data: "512\n"})

	var stopped atomic.Bool
	screen := &hookWriter{}
	reader := NewReader(NewConn(r, port, "fake"), screen, stopped.Load, quietLogger())
	screen.hook = func() {
		r.Post(func() {
			stopped.Store(true)
			reader.Cancel()
		})
	}
	reader.Start()

	run(t, r)

	assert.Equal(t, render.Bar(33), screen.String())
	assert.Equal(t, Stopped, reader.State())
	assert.NoError(t, reader.Err(), "shutdown is not a failure")
}

func TestReader_UnexpectedCancelIsChannelFailure(t *testing.T) {
	r := reactor.New()
	reader := NewReader(NewConn(r, newScriptedPort(), "fake"), &bytes.Buffer{}, func() bool { return false }, quietLogger())
	reader.Metrics = metrics.New()
	reader.Start()
	assert.Equal(t, Reading, reader.State())

	r.Post(reader.Cancel)
	run(t, r)

	assert.Equal(t, Stopped, reader.State())
	assert.ErrorIs(t, reader.Err(), errors.ErrCanceled)
	assert.Equal(t, int64(1), reader.Metrics.Snapshot().ChannelFailures["serial"])
}

func TestReader_TransientErrorResumes(t *testing.T) {
	r := reactor.New()
	port := newScriptedPort(
		readResult{err: syscall.EINTR},
		readResult{data: "16\n"},
		readResult{err: syscall.EIO},
	)

	var screen bytes.Buffer
	reader := NewReader(NewConn(r, port, "fake"), &screen, func() bool { return false }, quietLogger())
	reader.Start()

	run(t, r)

	assert.Equal(t, render.Bar(2), screen.String())
	assert.ErrorIs(t, reader.Err(), syscall.EIO)
	assert.True(t, strings.HasPrefix(reader.Err().Error(), "serial read fake"))
}
