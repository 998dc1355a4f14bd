package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BrunoKrugel/jpegcheck/internal/config"
	"github.com/BrunoKrugel/jpegcheck/internal/frame"
	"github.com/BrunoKrugel/jpegcheck/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher []byte

func (f staticFetcher) GetSnapshot(context.Context, string) ([]byte, error) {
	return f, nil
}

func padded() []byte {
	data := []byte{0xFF, 0xD8, 0xFF}
	data = append(data, make([]byte, 50)...)
	return append(data, 0xFF, 0xD9)
}

func newTestServer(t *testing.T) (*httptest.Server, *frame.FrameManager) {
	t.Helper()
	cfg := &config.Config{
		Cameras: config.Cameras{URLs: map[string]string{"front": "http://cam/front.jpg"}},
		Scan:    config.Scan{Threshold: 50},
		Server:  config.Server{History: 4},
	}
	fm := frame.NewFrameManager(cfg, staticFetcher(padded()), zerolog.Nop())
	srv := httptest.NewServer(New(fm, 50, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return srv, fm
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInspect(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/inspect?hexdump=true", "image/jpeg", bytes.NewReader(padded()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body InspectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.SignatureValid)
	assert.True(t, body.TerminatorPresent)
	assert.True(t, body.Corrupt)
	assert.Equal(t, int64(55), body.Size)
	assert.True(t, strings.HasPrefix(body.HexDump, "FF D8 FF 00 "))
}

func TestInspectThresholdAndName(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/inspect?threshold=0", "image/jpeg", bytes.NewReader(padded()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/inspect?threshold=abc", "image/jpeg", bytes.NewReader(padded()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/inspect?name=photo.png", "image/png", bytes.NewReader(padded()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCameraEndpoints(t *testing.T) {
	srv, fm := newTestServer(t)

	resp, err := http.Get(srv.URL + "/cameras/front")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = fm.FetchFrame(context.Background(), "front", "http://cam/front.jpg")
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/cameras/front")
	require.NoError(t, err)
	var report model.FrameReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	resp.Body.Close()
	assert.Equal(t, "front", report.Camera)
	assert.True(t, report.Corrupt)

	resp, err = http.Get(srv.URL + "/cameras/front/history")
	require.NoError(t, err)
	var history []model.FrameReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	resp.Body.Close()
	assert.Len(t, history, 1)

	resp, err = http.Get(srv.URL + "/cameras")
	require.NoError(t, err)
	var all map[string]*model.FrameReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	assert.Contains(t, all, "front")

	resp, err = http.Get(srv.URL + "/cameras/side")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
