package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const barWidth = 40

// Bar renders a Counter periodically. On a terminal it drives an in-place
// progressbar; otherwise it prints one line per tick:
//
//	[00:00:12 (41.3/s)] [################------------------------]     496/1200
type Bar struct {
	w        io.Writer
	interval time.Duration
	inPlace  bool

	mu        sync.Mutex
	counter   *Counter
	pb        *progressbar.ProgressBar
	startedAt time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewBar(w io.Writer, interval time.Duration) *Bar {
	return newBar(w, interval, isTerminal(w))
}

func newBar(w io.Writer, interval time.Duration, inPlace bool) *Bar {
	if interval <= 0 {
		interval = 2 * time.Second
		if inPlace {
			interval = 200 * time.Millisecond
		}
	}
	return &Bar{w: w, interval: interval, inPlace: inPlace}
}

// Start begins rendering c until Stop is called.
func (b *Bar) Start(c *Counter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopCh != nil {
		return
	}
	b.counter = c
	b.startedAt = time.Now()
	if b.inPlace && c.Total() > 0 {
		b.pb = progressbar.NewOptions64(c.Total(),
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription("Compressing images"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "#",
				SaucerPadding: "-",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	go b.loop(b.stopCh, b.doneCh)
}

// Stop renders the final state and ends the line.
func (b *Bar) Stop() {
	b.mu.Lock()
	stopCh, doneCh := b.stopCh, b.doneCh
	b.stopCh, b.doneCh = nil, nil
	b.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	b.mu.Lock()
	defer b.mu.Unlock()
	b.renderLocked()
	if b.pb != nil {
		_ = b.pb.Finish()
		fmt.Fprintln(b.w)
		b.pb = nil
	}
}

func (b *Bar) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-t.C:
			b.mu.Lock()
			b.renderLocked()
			b.mu.Unlock()
		}
	}
}

func (b *Bar) renderLocked() {
	if b.counter == nil {
		return
	}
	if b.pb != nil {
		_ = b.pb.Set64(b.counter.Done())
		return
	}
	fmt.Fprintln(b.w, Render(b.counter.Done(), b.counter.Total(), time.Since(b.startedAt)))
}

// Render formats one progress line.
func Render(done, total int64, elapsed time.Duration) string {
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(done) / secs
	}
	filled := 0
	if total > 0 {
		filled = int(done * barWidth / total)
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s (%.1f/s)] [%s%s] %7d/%-7d",
		formatElapsed(elapsed), rate,
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		done, total)
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
