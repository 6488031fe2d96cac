package render

import (
	"testing"

	"github.com/sourcegraph/conc/pool"
)

func TestRenderersReuse(t *testing.T) {
	var r renderers

	opts := DefaultOptions()
	_, giveBack, err := r.borrow(opts)
	if err != nil {
		t.Fatalf("borrow() error = %v", err)
	}
	giveBack()

	if r.poolFor(opts) != r.poolFor(DefaultOptions()) {
		t.Error("equal options should share a pool")
	}
	if r.poolFor(opts) == r.poolFor(opts.WithWidth(100)) {
		t.Error("different widths should not share a pool")
	}
	if r.poolFor(opts) == r.poolFor(opts.WithStyle(StyleLight)) {
		t.Error("different styles should not share a pool")
	}

	// sync.Pool may drop idle items, so only check that a borrow works
	second, giveBack, err := r.borrow(opts)
	if err != nil || second == nil {
		t.Fatalf("second borrow() = %v, %v", second, err)
	}
	giveBack()

	if got := r.size(); got != 3 {
		t.Errorf("size() = %d, want 3", got)
	}
	r.reset()
	if got := r.size(); got != 0 {
		t.Errorf("size() after reset = %d, want 0", got)
	}
}

func TestRenderersBadStyleNotKept(t *testing.T) {
	var r renderers

	if _, _, err := r.borrow(DefaultOptions().WithStyle("invalid_style_path")); err == nil {
		t.Fatal("expected error for invalid style")
	}
	if got := r.size(); got != 0 {
		t.Errorf("size() = %d, failed option sets should not be kept", got)
	}
}

func TestMarkdownConcurrent(t *testing.T) {
	idle.reset()
	defer idle.reset()

	opts := DefaultOptions()
	p := pool.New().WithErrors().WithMaxGoroutines(16)
	for i := 0; i < 64; i++ {
		p.Go(func() error {
			_, err := Markdown("# Test", opts)
			return err
		})
	}
	if err := p.Wait(); err != nil {
		t.Errorf("concurrent render error: %v", err)
	}

	if got := idle.size(); got != 1 {
		t.Errorf("expected one option set after concurrent access, got %d", got)
	}
}

func TestNewRenderer_AutoStyle(t *testing.T) {
	tr, err := newRenderer(DefaultOptions().WithStyle(StyleAuto))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output, err := tr.Render("# Test")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if output == "" {
		t.Error("expected non-empty output")
	}
}
