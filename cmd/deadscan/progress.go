package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// barProgress draws one progress bar per pass.
type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{w: w}
}

func (p *barProgress) StartPass(name string, total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) FileDone() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *barProgress) FinishPass() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
