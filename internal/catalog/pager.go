package catalog

import (
	"context"
	"sync"
)

// DefaultPageSize matches the storefront's "load more" batch.
const DefaultPageSize = 20

// Pager is the "load more" cursor over a Source: an offset plus a flag that drops to
// false the first time a page comes back empty.
type Pager struct {
	mu      sync.Mutex
	src     Source
	limit   int
	initial int
	offset  int
	hasMore bool
}

// PagerSnapshot is the cursor state at a point in time.
type PagerSnapshot struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// NewPager starts a cursor at initialOffset. Non-positive limits fall back to DefaultPageSize.
func NewPager(src Source, limit, initialOffset int) *Pager {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if initialOffset < 0 {
		initialOffset = 0
	}
	return &Pager{src: src, limit: limit, initial: initialOffset, offset: initialOffset, hasMore: true}
}

// Next loads the page at the cursor. A non-empty page advances the offset by the page
// size; an empty page ends the cursor for good. Errors leave the cursor untouched.
func (p *Pager) Next(ctx context.Context) ([]Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasMore {
		return nil, nil
	}
	products, err := p.src.FetchPage(ctx, p.limit, p.offset)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		p.hasMore = false
		return nil, nil
	}
	p.offset += p.limit
	return products, nil
}

// Reset rewinds the cursor to its initial offset for a fresh browsing pass.
func (p *Pager) Reset() PagerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = p.initial
	p.hasMore = true
	return PagerSnapshot{Offset: p.offset, Limit: p.limit, HasMore: p.hasMore}
}

// HasMore reports whether another Next call may return products.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Pager) Snapshot() PagerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PagerSnapshot{Offset: p.offset, Limit: p.limit, HasMore: p.hasMore}
}
