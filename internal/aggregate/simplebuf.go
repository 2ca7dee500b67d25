package aggregate

import (
	"sort"
	"sync"

	"go-personal-site/internal/model"
)

// SimpleBuffer 收集时间线条目，按 来源+slug 去重。
type SimpleBuffer struct {
	mu      sync.Mutex
	entries map[string]model.TimelineEntry
}

func NewSimpleBuffer() *SimpleBuffer {
	return &SimpleBuffer{entries: make(map[string]model.TimelineEntry)}
}

func (b *SimpleBuffer) Add(e model.TimelineEntry) {
	if e.Slug == "" {
		return
	}
	b.mu.Lock()
	b.entries[string(e.Source)+":"+e.Slug] = e
	b.mu.Unlock()
}

// Snapshot 返回按日期倒序的副本，同日期按标题排序以保证输出稳定。
func (b *SimpleBuffer) Snapshot() []model.TimelineEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.TimelineEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Title < out[j].Title
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}
