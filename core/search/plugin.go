package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// ErrEmptyQuery is returned for blank search terms.
var ErrEmptyQuery = errors.New("search: empty query")

// Plugin 搜索插件接口
// 每个来源把自己的结果转换成统一的 model.Track
type Plugin interface {
	// Search returns at most limit tracks for query.
	Search(ctx context.Context, query string, limit int) ([]model.Track, error)
	// Source identifies the plugin, e.g. "ytmusic".
	Source() string
}

// Manager 搜索插件管理器
// 并发查询所有插件，按注册顺序合并去重
type Manager struct {
	mu      sync.RWMutex
	plugins []Plugin
	timeout time.Duration
}

// NewManager creates a manager. Plugins that have not answered within
// timeout are left out of the merged result.
func NewManager(timeout time.Duration, plugins ...Plugin) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Manager{plugins: plugins, timeout: timeout}
}

// Register 注册插件，先注册的优先
func (m *Manager) Register(p Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = append(m.plugins, p)
}

// Get 获取指定来源的插件
func (m *Manager) Get(source string) Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, _ := lo.Find(m.plugins, func(p Plugin) bool { return p.Source() == source })
	return p
}

// Search queries every plugin in parallel and merges the answers. Earlier
// plugins win on duplicate media ids.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	plugins := append([]Plugin(nil), m.plugins...)
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results := make([][]model.Track, len(plugins))
	errs := make([]error, len(plugins))
	var wg sync.WaitGroup
	for i, p := range plugins {
		wg.Add(1)
		go func(i int, p Plugin) {
			defer wg.Done()
			tracks, err := p.Search(ctx, query, limit)
			if err != nil {
				logger.Warn("search plugin failed",
					logger.String("source", p.Source()), logger.String("query", query), logger.ErrorField(err))
				errs[i] = err
				return
			}
			results[i] = tracks
		}(i, p)
	}
	wg.Wait()

	merged := lo.Flatten(results)
	merged = lo.Filter(merged, func(t model.Track, _ int) bool { return t.Playable() })
	merged = lo.UniqBy(merged, func(t model.Track) string { return t.MediaID })
	if len(merged) > limit {
		merged = merged[:limit]
	}

	if len(merged) == 0 && len(plugins) > 0 && lo.EveryBy(errs, func(err error) bool { return err != nil }) {
		return nil, errors.Join(errs...)
	}
	logger.Debug("search done", logger.String("query", query), logger.Int("count", len(merged)))
	return merged, nil
}
