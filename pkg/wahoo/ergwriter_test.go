package wahoo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	writes chan []byte
}

func newRecorder() *recorder { return &recorder{writes: make(chan []byte, 16)} }

func (r *recorder) write(cmd []byte) error {
	r.writes <- append([]byte(nil), cmd...)
	return nil
}

func (r *recorder) next(t *testing.T, timeout time.Duration) []byte {
	t.Helper()
	select {
	case cmd := <-r.writes:
		return cmd
	case <-time.After(timeout):
		t.Fatal("nenhuma escrita recebida")
		return nil
	}
}

func (r *recorder) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case cmd := <-r.writes:
		t.Fatalf("escrita inesperada: % x", cmd)
	case <-time.After(wait):
	}
}

func startWriter(t *testing.T, interval time.Duration) (*ErgWriter, *recorder) {
	t.Helper()
	rec := newRecorder()
	w := NewErgWriter(rec.write, interval, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go w.Run(ctx, &wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return w, rec
}

func TestErgWriterSendsNewestTarget(t *testing.T) {
	const interval = 100 * time.Millisecond
	w, rec := startWriter(t, interval)

	w.SetErg(100)
	require.Equal(t, ErgCommand(100), rec.next(t, time.Second))
	start := time.Now()

	w.SetErg(150)
	w.SetErg(200)
	require.Equal(t, ErgCommand(200), rec.next(t, time.Second))
	require.GreaterOrEqual(t, time.Since(start), interval/2)

	rec.none(t, 3*interval)
}

func TestErgWriterLevelCancelsPending(t *testing.T) {
	const interval = 100 * time.Millisecond
	w, rec := startWriter(t, interval)

	w.SetErg(100)
	require.Equal(t, ErgCommand(100), rec.next(t, time.Second))

	w.SetErg(150)
	require.NoError(t, w.SetLevel(4))
	require.Equal(t, LevelCommand(4), rec.next(t, time.Second))

	rec.none(t, 3*interval)
}

func TestErgWriterUnlock(t *testing.T) {
	w, rec := startWriter(t, time.Second)
	require.NoError(t, w.Unlock())
	require.Equal(t, UnlockCommand(), rec.next(t, time.Second))
}

func TestErgWriterSetErgOnlyQueues(t *testing.T) {
	rec := newRecorder()
	w := NewErgWriter(rec.write, time.Second, nil)

	done := make(chan error, 1)
	go func() {
		w.SetErg(100)
		w.SetErg(200)
		err := w.SetLevel(3)
		w.SetErg(250)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SetErg/SetLevel bloquearam")
	}

	// Sem Run, só o nível é escrito; o ERG fica pendente.
	require.Equal(t, LevelCommand(3), rec.next(t, time.Second))
	rec.none(t, 50*time.Millisecond)

	watts, ok := w.takePending()
	require.True(t, ok)
	require.Equal(t, uint16(250), watts)
}
