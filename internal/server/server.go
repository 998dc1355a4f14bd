// Package server exposes camera frame reports and on-demand inspection over
// HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/BrunoKrugel/jpegcheck/internal/frame"
	"github.com/BrunoKrugel/jpegcheck/internal/inspector"
	"github.com/BrunoKrugel/jpegcheck/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// MaxUploadSize bounds the body accepted by POST /inspect.
const MaxUploadSize = 32 << 20

type Server struct {
	frames    *frame.FrameManager
	threshold int
	log       zerolog.Logger
}

// InspectResponse is returned by POST /inspect.
type InspectResponse struct {
	model.Result
	HexDump string `json:"hexdump,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func New(frames *frame.FrameManager, threshold int, log zerolog.Logger) *Server {
	return &Server{frames: frames, threshold: threshold, log: log}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/inspect", s.inspect)
	r.Route("/cameras", func(r chi.Router) {
		r.Get("/", s.listCameras)
		r.Get("/{name}", s.latest)
		r.Get("/{name}/history", s.history)
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// inspect runs the inspector on the request body. Query parameters:
// threshold (int), name (filename for the extension check), hexdump (bool).
func (s *Server) inspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	threshold := s.threshold
	if v := q.Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "threshold must be an integer"})
			return
		}
		threshold = n
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSize))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	opts := []inspector.Option{inspector.WithThreshold(threshold)}
	if name := q.Get("name"); name != "" {
		opts = append(opts, inspector.WithName(name))
	}

	in, err := inspector.FromBytes(data, opts...)
	if err != nil {
		status := http.StatusInternalServerError
		if inspector.IsInvalidInput(err) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	res := in.Result()
	resp := InspectResponse{Result: model.Result{
		Path:              in.Name(),
		Size:              in.Size(),
		SignatureValid:    res.SignatureValid,
		TerminatorPresent: res.TerminatorPresent,
		Corrupt:           res.Corrupt,
	}}
	if ok, _ := strconv.ParseBool(q.Get("hexdump")); ok {
		resp.HexDump, err = in.HexDump()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listCameras(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*model.FrameReport)
	for _, name := range s.frames.Cameras() {
		out[name] = s.frames.GetLatestReport(name)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.frames.History(name); !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown camera"})
		return
	}

	report := s.frames.GetLatestReport(name)
	if report == nil {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	reports, ok := s.frames.History(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown camera"})
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
