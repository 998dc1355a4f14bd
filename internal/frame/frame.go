package frame

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BrunoKrugel/jpegcheck/internal/config"
	"github.com/BrunoKrugel/jpegcheck/internal/inspector"
	"github.com/BrunoKrugel/jpegcheck/internal/model"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

var ErrUnknownCamera = errors.New("unknown camera")

// Fetcher downloads one snapshot from a camera URL
type Fetcher interface {
	GetSnapshot(ctx context.Context, url string) ([]byte, error)
}

// CameraCache holds a ring buffer of frame reports for one camera
type CameraCache struct {
	reports    []*model.FrameReport
	writeIndex int
	count      int
	size       int
	lastDigest uint64
	mu         sync.RWMutex
}

func NewCameraCache(size int) *CameraCache {
	if size < 1 {
		size = 1
	}
	return &CameraCache{
		reports: make([]*model.FrameReport, size),
		size:    size,
	}
}

func (c *CameraCache) push(r *model.FrameReport) {
	c.reports[c.writeIndex] = r
	c.writeIndex = (c.writeIndex + 1) % c.size
	if c.count < c.size {
		c.count++
	}
	c.lastDigest = r.Digest
}

// FrameManager polls cameras and inspects every new frame
type FrameManager struct {
	Caches    map[string]*CameraCache
	URLs      map[string]string
	Client    Fetcher
	threshold int
	log       zerolog.Logger
}

func NewFrameManager(cfg *config.Config, client Fetcher, log zerolog.Logger) *FrameManager {
	fm := &FrameManager{
		Caches:    make(map[string]*CameraCache),
		URLs:      make(map[string]string),
		Client:    client,
		threshold: cfg.Scan.Threshold,
		log:       log,
	}
	for name, url := range cfg.Cameras.URLs {
		fm.Caches[name] = NewCameraCache(cfg.Server.History)
		fm.URLs[name] = url
	}
	return fm
}

// Start runs one fetcher per camera until ctx is done
func (fm *FrameManager) Start(ctx context.Context, fetchFPS int) {
	for name, url := range fm.URLs {
		go fm.StartFetcher(ctx, name, url, fetchFPS)
	}
}

// StartFetcher continuously fetches frames for a camera
func (fm *FrameManager) StartFetcher(ctx context.Context, cameraName, cameraURL string, fetchFPS int) {
	if fetchFPS < 1 {
		fetchFPS = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fetchFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fm.FetchFrame(ctx, cameraName, cameraURL); err != nil {
				fm.log.Warn().Err(err).Str("camera", cameraName).Msg("fetch failed")
			}
		}
	}
}

// FetchFrame fetches a single frame, inspects it and records the report. A
// frame identical to the previous one is not inspected again; the previous
// report is returned instead.
func (fm *FrameManager) FetchFrame(ctx context.Context, cameraName, cameraURL string) (*model.FrameReport, error) {
	cache, ok := fm.Caches[cameraName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCamera, cameraName)
	}

	body, err := fm.Client.GetSnapshot(ctx, cameraURL)
	if err != nil {
		return nil, err
	}

	digest := xxhash.Sum64(body)

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.count > 0 && cache.lastDigest == digest {
		fm.log.Debug().Str("camera", cameraName).Msg("frame unchanged")
		return latest(cache), nil
	}

	in, err := inspector.FromBytes(body, inspector.WithThreshold(fm.threshold))
	if err != nil {
		return nil, err
	}

	res := in.Result()
	report := &model.FrameReport{
		Camera:    cameraName,
		Timestamp: time.Now(),
		Digest:    digest,
		Result: model.Result{
			Path:              cameraURL,
			Size:              int64(len(body)),
			SignatureValid:    res.SignatureValid,
			TerminatorPresent: res.TerminatorPresent,
			Corrupt:           res.Corrupt,
		},
	}
	cache.push(report)

	if res.Corrupt {
		fm.log.Warn().Str("camera", cameraName).Int("size", len(body)).Msg("corrupt frame")
	}

	return report, nil
}

func latest(cache *CameraCache) *model.FrameReport {
	if cache.count == 0 {
		return nil
	}
	return cache.reports[(cache.writeIndex-1+cache.size)%cache.size]
}

// GetLatestReport returns the most recent report for a camera
func (fm *FrameManager) GetLatestReport(cameraName string) *model.FrameReport {
	cache, exists := fm.Caches[cameraName]
	if !exists {
		return nil
	}

	cache.mu.RLock()
	defer cache.mu.RUnlock()

	return latest(cache)
}

// History returns the cached reports for a camera, oldest first
func (fm *FrameManager) History(cameraName string) ([]*model.FrameReport, bool) {
	cache, exists := fm.Caches[cameraName]
	if !exists {
		return nil, false
	}

	cache.mu.RLock()
	defer cache.mu.RUnlock()

	out := make([]*model.FrameReport, 0, cache.count)
	start := (cache.writeIndex - cache.count + cache.size) % cache.size
	for i := 0; i < cache.count; i++ {
		out = append(out, cache.reports[(start+i)%cache.size])
	}
	return out, true
}

// Cameras returns the configured camera names, sorted
func (fm *FrameManager) Cameras() []string {
	names := make([]string, 0, len(fm.URLs))
	for name := range fm.URLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
