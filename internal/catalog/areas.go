package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/drwave-www/worldwidewaves-engine/internal/domain"
	"github.com/drwave-www/worldwidewaves-engine/internal/geo"
)

// AreaSource loads event areas from GeoJSON files, lazily and at most
// once per event. A file that is not there yet reads as
// domain.ErrAreaNotReady so observation can proceed degraded until the
// area arrives.
type AreaSource struct {
	baseDir string

	mu    sync.Mutex
	paths map[string]string
	cache map[string]*geo.Area
}

// NewAreaSource creates an empty source; paths are added via Register.
func NewAreaSource(baseDir string) *AreaSource {
	return &AreaSource{
		baseDir: baseDir,
		paths:   make(map[string]string),
		cache:   make(map[string]*geo.Area),
	}
}

// Register associates an event id with its GeoJSON file. Relative paths
// resolve against the source's base directory.
func (s *AreaSource) Register(eventID, path string) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}
	s.mu.Lock()
	s.paths[eventID] = path
	s.mu.Unlock()
}

// EventArea returns the event's area, reading and parsing its GeoJSON
// file on first use. Parse failures are returned as-is and retried on
// the next call; only a successful parse is cached.
func (s *AreaSource) EventArea(eventID string) (*geo.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if area, ok := s.cache[eventID]; ok {
		return area, nil
	}
	path, ok := s.paths[eventID]
	if !ok {
		return nil, fmt.Errorf("no area registered for event %q", eventID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("area file %s: %w", path, domain.ErrAreaNotReady)
		}
		return nil, fmt.Errorf("failed to read area file: %w", err)
	}

	rings, err := geo.ParseGeoJSONRings(data)
	if err != nil {
		return nil, fmt.Errorf("area file %s: %w", path, err)
	}
	area := geo.NewArea(rings...)
	s.cache[eventID] = area
	return area, nil
}
