package frame

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/BrunoKrugel/jpegcheck/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu     sync.Mutex
	frames map[string][]byte
	err    error
	calls  int
}

func (s *stubFetcher) GetSnapshot(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.frames[url], nil
}

func (s *stubFetcher) set(url string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[url] = data
}

func frameBytes(fill byte) []byte {
	data := []byte{0xFF, 0xD8, 0xFF}
	for i := 0; i < 60; i++ {
		data = append(data, fill+byte(i))
	}
	return append(data, 0xFF, 0xD9)
}

func newManager(history int) (*FrameManager, *stubFetcher) {
	cfg := &config.Config{
		Cameras: config.Cameras{URLs: map[string]string{
			"front": "http://cam/front.jpg",
			"back":  "http://cam/back.jpg",
		}},
		Scan:   config.Scan{Threshold: 50},
		Server: config.Server{History: history},
	}
	stub := &stubFetcher{frames: map[string][]byte{}}
	return NewFrameManager(cfg, stub, zerolog.Nop()), stub
}

func TestFetchFrame(t *testing.T) {
	fm, stub := newManager(4)
	stub.set("http://cam/front.jpg", frameBytes(0x10))

	report, err := fm.FetchFrame(context.Background(), "front", "http://cam/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, "front", report.Camera)
	assert.True(t, report.SignatureValid)
	assert.False(t, report.Corrupt)
	assert.Equal(t, int64(65), report.Size)
	assert.Same(t, report, fm.GetLatestReport("front"))
	assert.Nil(t, fm.GetLatestReport("back"))
	assert.Equal(t, []string{"back", "front"}, fm.Cameras())
}

func TestFetchFrameSkipsUnchanged(t *testing.T) {
	fm, stub := newManager(4)
	stub.set("http://cam/front.jpg", frameBytes(0x10))

	first, err := fm.FetchFrame(context.Background(), "front", "http://cam/front.jpg")
	require.NoError(t, err)
	second, err := fm.FetchFrame(context.Background(), "front", "http://cam/front.jpg")
	require.NoError(t, err)

	assert.Same(t, first, second)
	history, ok := fm.History("front")
	require.True(t, ok)
	assert.Len(t, history, 1)
	assert.Equal(t, 2, stub.calls)
}

func TestFetchFrameTruncated(t *testing.T) {
	fm, stub := newManager(4)
	stub.set("http://cam/back.jpg", frameBytes(0x10)[:30])

	report, err := fm.FetchFrame(context.Background(), "back", "http://cam/back.jpg")
	require.NoError(t, err)
	assert.False(t, report.TerminatorPresent)
	assert.True(t, report.Corrupt)
}

func TestHistoryRingBuffer(t *testing.T) {
	fm, stub := newManager(3)
	for i := 0; i < 5; i++ {
		stub.set("http://cam/front.jpg", frameBytes(byte(i*0x20)))
		_, err := fm.FetchFrame(context.Background(), "front", "http://cam/front.jpg")
		require.NoError(t, err)
	}

	history, ok := fm.History("front")
	require.True(t, ok)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
	assert.Same(t, history[2], fm.GetLatestReport("front"))

	_, ok = fm.History("side")
	assert.False(t, ok)
}

func TestFetchFrameErrors(t *testing.T) {
	fm, stub := newManager(2)

	_, err := fm.FetchFrame(context.Background(), "side", "http://cam/side.jpg")
	assert.ErrorIs(t, err, ErrUnknownCamera)

	cause := errors.New("connection refused")
	stub.err = cause
	_, err = fm.FetchFrame(context.Background(), "front", "http://cam/front.jpg")
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, fm.GetLatestReport("front"))
}
