package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeSource serves products 1..total in pages.
type fakeSource struct {
	total int
	calls int
	err   error
}

func (f *fakeSource) FetchPage(_ context.Context, limit, offset int) ([]Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []Product
	for id := offset + 1; id <= f.total && len(out) < limit; id++ {
		out = append(out, Product{ID: id, Price: decimal.NewFromInt(int64(id))})
	}
	return out, nil
}

func TestPagerAdvancesUntilEmptyPage(t *testing.T) {
	src := &fakeSource{total: 45}
	p := NewPager(src, 20, 0)
	ctx := context.Background()

	sizes := []int{}
	for p.HasMore() {
		products, err := p.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		sizes = append(sizes, len(products))
	}

	want := []int{20, 20, 5, 0}
	if len(sizes) != len(want) {
		t.Fatalf("expected page sizes %v, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("expected page sizes %v, got %v", want, sizes)
		}
	}
	if snap := p.Snapshot(); snap.Offset != 60 || snap.HasMore {
		t.Fatalf("unexpected cursor %+v", snap)
	}

	calls := src.calls
	if products, err := p.Next(ctx); err != nil || products != nil {
		t.Fatalf("exhausted pager should return nothing, got %v %v", products, err)
	}
	if src.calls != calls {
		t.Fatal("exhausted pager should not fetch again")
	}
}

func TestPagerStartsAtInitialOffset(t *testing.T) {
	src := &fakeSource{total: 30}
	p := NewPager(src, 0, 20)
	products, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(products) != 10 || products[0].ID != 21 {
		t.Fatalf("unexpected first page %+v", products)
	}
	if snap := p.Snapshot(); snap.Limit != DefaultPageSize || snap.Offset != 40 || !snap.HasMore {
		t.Fatalf("unexpected cursor %+v", snap)
	}
}

func TestPagerErrorLeavesCursor(t *testing.T) {
	src := &fakeSource{total: 30, err: errors.New("offline")}
	p := NewPager(src, 10, 0)
	if _, err := p.Next(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if snap := p.Snapshot(); snap.Offset != 0 || !snap.HasMore {
		t.Fatalf("cursor moved after error: %+v", snap)
	}

	src.err = nil
	products, err := p.Next(context.Background())
	if err != nil || len(products) != 10 {
		t.Fatalf("expected recovery, got %d products, err %v", len(products), err)
	}
}

func TestPagerResetRewindsExhaustedCursor(t *testing.T) {
	src := &fakeSource{total: 25}
	p := NewPager(src, 20, 0)
	ctx := context.Background()

	for p.HasMore() {
		if _, err := p.Next(ctx); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if snap := p.Reset(); snap.Offset != 0 || !snap.HasMore {
		t.Fatalf("unexpected cursor after reset %+v", snap)
	}
	products, err := p.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(products) != 20 || products[0].ID != 1 {
		t.Fatalf("expected first page again, got %d products", len(products))
	}
}

func TestPagerResetReturnsToInitialOffset(t *testing.T) {
	p := NewPager(&fakeSource{total: 60}, 20, 20)
	if _, err := p.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if snap := p.Reset(); snap.Offset != 20 {
		t.Fatalf("expected offset 20 after reset, got %+v", snap)
	}
}
