package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// renderers holds idle glamour renderers keyed by the Options they were
// built with. A TermRenderer must not serve two Render calls at once, so
// callers borrow one and give it back when done.
type renderers struct {
	byOptions sync.Map // Options -> *sync.Pool
}

var idle renderers

func (r *renderers) poolFor(opts Options) *sync.Pool {
	if p, ok := r.byOptions.Load(opts); ok {
		return p.(*sync.Pool)
	}
	p, _ := r.byOptions.LoadOrStore(opts, new(sync.Pool))
	return p.(*sync.Pool)
}

// borrow returns a renderer for opts and the func that hands it back.
func (r *renderers) borrow(opts Options) (*glamour.TermRenderer, func(), error) {
	p := r.poolFor(opts)
	tr, ok := p.Get().(*glamour.TermRenderer)
	if !ok {
		var err error
		if tr, err = newRenderer(opts); err != nil {
			r.byOptions.Delete(opts)
			return nil, nil, err
		}
	}
	return tr, func() { p.Put(tr) }, nil
}

func (r *renderers) reset() {
	r.byOptions.Clear()
}

func (r *renderers) size() int {
	n := 0
	r.byOptions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := glamour.WithStylePath(opts.Style)
	if opts.Style == StyleAuto {
		style = glamour.WithAutoStyle()
	}

	with := []glamour.TermRendererOption{
		style,
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		with = append(with, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		with = append(with, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(with...)
}
