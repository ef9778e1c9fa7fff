package imaging

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"propostaflow/internal/document"
)

// Replacement is an optimized payload for one image slot. An empty
// ElementID addresses the page background.
type Replacement struct {
	PageID    string
	ElementID string
	Original  string
	Optimized string
}

// Optimizer shrinks the images of a template.
type Optimizer struct {
	opts Options
}

// NewOptimizer creates an optimizer with opts, zero fields taking their
// defaults.
func NewOptimizer(opts Options) *Optimizer {
	return &Optimizer{opts: opts.withDefaults()}
}

// Optimize shrinks every embedded image of snap concurrently. snap is
// only read; callers pass a snapshot so editing can continue meanwhile.
// Images that fail to decode are logged and skipped. Only cancellation of
// ctx is returned as an error.
func (o *Optimizer) Optimize(ctx context.Context, snap *document.Template) ([]Replacement, error) {
	jobs := collect(snap)
	if len(jobs) == 0 {
		return nil, nil
	}

	results := make([]Replacement, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			optimized, ok := o.optimizeURI(job.Original)
			if ok {
				job.Optimized = optimized
				results[i] = job
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r.Optimized != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (o *Optimizer) optimizeURI(src string) (string, bool) {
	mime, data, err := ParseDataURI(src)
	if err != nil {
		return "", false
	}
	img, ok, err := Shrink(data, mime, o.opts)
	if err != nil {
		slog.Warn("image optimization skipped", "type", mime, "bytes", len(data), "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	slog.Debug("image optimized", "from", len(data), "to", len(img.Data), "type", img.ContentType)
	return DataURI(img), true
}

// collect lists every image data URI of a template.
func collect(tpl *document.Template) []Replacement {
	var jobs []Replacement
	for _, p := range tpl.Pages {
		if isDataURI(p.Config.BackgroundImage) {
			jobs = append(jobs, Replacement{PageID: p.ID, Original: p.Config.BackgroundImage})
		}
		for _, el := range p.Elements {
			c, ok := el.Content.(document.ImageContent)
			if ok && isDataURI(c.Src) {
				jobs = append(jobs, Replacement{PageID: p.ID, ElementID: el.ID, Original: c.Src})
			}
		}
	}
	return jobs
}

func isDataURI(s string) bool {
	return len(s) > len("data:image/") && s[:len("data:image/")] == "data:image/"
}

// Apply writes replacements into tpl. A replacement is applied only when
// its slot still holds the original payload, so edits made while the
// optimizer ran are never overwritten. It returns the number applied.
func Apply(tpl *document.Template, reps []Replacement) int {
	applied := 0
	for _, r := range reps {
		page := tpl.Page(r.PageID)
		if page == nil {
			continue
		}
		if r.ElementID == "" {
			if page.Config.BackgroundImage == r.Original {
				page.Config.BackgroundImage = r.Optimized
				applied++
			}
			continue
		}
		el := page.Element(r.ElementID)
		if el == nil {
			continue
		}
		if c, ok := el.Content.(document.ImageContent); ok && c.Src == r.Original {
			el.Content = document.ImageContent{Src: r.Optimized}
			applied++
		}
	}
	return applied
}
