package cache

import (
	"sort"
	"sync"

	"github.com/recordwise/aigate/pkg/model"
)

// metricsSet tracks per-namespace hit/miss counters.
type metricsSet struct {
	mu         sync.Mutex
	namespaced map[string]*counters
}

type counters struct {
	hits   int64
	misses int64
}

func newMetricsSet() *metricsSet {
	return &metricsSet{namespaced: make(map[string]*counters)}
}

func (m *metricsSet) hit(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(namespace).hits++
}

func (m *metricsSet) miss(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(namespace).misses++
}

func (m *metricsSet) snapshot(namespace string) model.CacheMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.get(namespace)
	out := model.CacheMetrics{
		Namespace: namespace,
		Hits:      c.hits,
		Misses:    c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		out.HitRate = float64(c.hits) / float64(total)
	}
	return out
}

func (m *metricsSet) reset(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaced, namespace)
}

func (m *metricsSet) namespaces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.namespaced))
	for name := range m.namespaced {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// get returns the counters for a namespace, creating them lazily.
// Callers must hold mu.
func (m *metricsSet) get(namespace string) *counters {
	c, ok := m.namespaced[namespace]
	if !ok {
		c = &counters{}
		m.namespaced[namespace] = c
	}
	return c
}
