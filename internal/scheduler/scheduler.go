// Package scheduler drives the minute-boundary poem rotation.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gangerang/poem-clock/internal/persistence"
)

// Wall-clock offsets for the poll loop.
const (
	pollInterval   = time.Second // how often the loop inspects the clock
	prefetchSecond = 45          // seconds past the minute when prefetch fires

	// startupPrefetchDelay gives the first poem a head start before the
	// prefetch for the following minute goes out.
	startupPrefetchDelay = 2 * time.Second
)

// Poem is the snapshot served to readers.
type Poem struct {
	Text         string
	TimeLabel    string
	Timestamp    int64 // epoch millis of the minute the poem describes
	MinuteOfHour int
}

// nextSlot holds the speculative poem for the upcoming minute.
// minuteOfHour == -1 means empty.
type nextSlot struct {
	text         string
	timeLabel    string
	timestamp    int64
	minuteOfHour int
}

// Generator produces poem text for a time label. Implementations never fail;
// they return fallback text instead.
type Generator interface {
	Generate(ctx context.Context, timeLabel string) string
}

// genKind says which slot a finished generation is destined for.
type genKind uint8

const (
	genNext    genKind = iota // fill the prefetch slot
	genCurrent                // replace the served poem and append to history
)

// genResult carries a finished generation back to the loop goroutine.
type genResult struct {
	kind         genKind
	text         string
	timeLabel    string
	timestamp    int64
	minuteOfHour int
}

// Scheduler owns the current poem and the once-a-minute rotation.
//
// All slot writes happen on the loop goroutine: generation runs in spawned
// goroutines that report back over the results channel, so two fills can
// never interleave. Readers get the current poem through an atomic pointer
// and never block the loop.
type Scheduler struct {
	gen            Generator
	db             *persistence.DB
	model          string
	retentionHours int

	current atomic.Pointer[Poem] // nil until the first generation lands
	next    nextSlot             // loop goroutine only

	results chan genResult
	stop    chan struct{}
	done    chan struct{}
}

// New creates a scheduler. Call Start to generate the first poem and begin
// the rotation.
func New(gen Generator, db *persistence.DB, model string, retentionHours int) *Scheduler {
	s := &Scheduler{
		gen:            gen,
		db:             db,
		model:          model,
		retentionHours: retentionHours,
		results:        make(chan genResult, 4),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	s.next.minuteOfHour = -1
	return s
}

// Start generates the first poem synchronously, so readers never see an empty
// slot after it returns, then launches the poll loop.
func (s *Scheduler) Start() {
	s.apply(s.generate(genCurrent, time.Now()))
	slog.Info("poem scheduler started", "label", s.current.Load().TimeLabel)

	go s.run()
}

// Stop halts the poll loop and waits for it to exit. In-flight generation
// calls are abandoned; their results are dropped.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	slog.Info("poem scheduler stopped")
}

// Current returns the poem being served right now, or nil before the startup
// generation lands. The returned value is a read-only snapshot.
func (s *Scheduler) Current() *Poem {
	return s.current.Load()
}

func (s *Scheduler) run() {
	defer close(s.done)

	initialPrefetch := time.NewTimer(startupPrefetchDelay)
	defer initialPrefetch.Stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-initialPrefetch.C:
			s.prefetch(time.Now().Add(time.Minute))
		case res := <-s.results:
			s.apply(res)
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick inspects the wall clock once and fires whichever windows match.
func (s *Scheduler) tick(now time.Time) {
	// Prefetch window: start writing next minute's poem ahead of time.
	if now.Second() == prefetchSecond {
		s.prefetch(now.Add(time.Minute))
	}

	// Boundary window: the minute just changed.
	if now.Second() == 0 && now.Minute() != s.currentMinute() {
		s.rotate(now)
	}
}

// prefetch starts generation for the minute containing target, unless the
// next slot already holds that minute. The minute check is the only duplicate
// guard: a redundant trigger while a fill is still in flight just spawns a
// second generation whose result overwrites the first. Nothing is appended to
// history until promotion, so the duplicate costs one API call at most.
func (s *Scheduler) prefetch(target time.Time) {
	target = target.Truncate(time.Minute)
	if s.next.minuteOfHour == target.Minute() {
		return
	}
	slog.Debug("prefetching next poem", "label", TimeLabel(target))
	s.spawn(genNext, target)
}

// rotate promotes the prefetched poem at a minute boundary, or falls back to
// on-demand generation when the slot is empty or stale. At the top of the
// hour it also prunes expired history.
func (s *Scheduler) rotate(now time.Time) {
	minute := now.Minute()

	if s.next.minuteOfHour == minute && s.next.text != "" {
		s.publish(&Poem{
			Text:         s.next.text,
			TimeLabel:    s.next.timeLabel,
			Timestamp:    s.next.timestamp,
			MinuteOfHour: minute,
		})
		s.next = nextSlot{minuteOfHour: -1}
		slog.Info("poem rotated in", "label", s.current.Load().TimeLabel)
	} else {
		// Cold start, slow API, or a stale prefetch: regenerate for the new
		// minute. The previous poem stays on display until the result lands.
		slog.Info("prefetch missed, generating on demand", "minute", minute)
		s.spawn(genCurrent, now)
	}

	if minute == 0 {
		s.pruneHistory()
	}
}

// apply folds a finished generation into the slots. Runs on the loop
// goroutine (and during Start, before the loop exists).
func (s *Scheduler) apply(res genResult) {
	switch res.kind {
	case genNext:
		s.next = nextSlot{
			text:         res.text,
			timeLabel:    res.timeLabel,
			timestamp:    res.timestamp,
			minuteOfHour: res.minuteOfHour,
		}
		slog.Debug("next poem ready", "label", res.timeLabel)
	case genCurrent:
		if p := s.current.Load(); p != nil && res.timestamp <= p.Timestamp {
			// Either a twin regeneration for this minute already landed, or
			// a newer minute published while this call was in flight. Applying
			// would rewind the display or append the poem twice.
			return
		}
		s.publish(&Poem{
			Text:         res.text,
			TimeLabel:    res.timeLabel,
			Timestamp:    res.timestamp,
			MinuteOfHour: res.minuteOfHour,
		})
		slog.Info("current poem updated", "label", res.timeLabel)
	}
}

// publish swaps the served poem and appends it to history. A failed append is
// logged and swallowed: a bad write must not stall the rotation.
func (s *Scheduler) publish(p *Poem) {
	s.current.Store(p)

	rec := persistence.PoemRecord{
		Timestamp:  p.Timestamp,
		TimeString: p.TimeLabel,
		Poem:       p.Text,
		ModelUsed:  s.model,
	}
	if err := s.db.Append(rec); err != nil {
		slog.Error("history append failed", "label", p.TimeLabel, "error", err)
	}
}

// spawn runs one generation call off the loop goroutine and delivers the
// result, unless the scheduler stops first.
func (s *Scheduler) spawn(kind genKind, minute time.Time) {
	go func() {
		res := s.generate(kind, minute)
		select {
		case s.results <- res:
		case <-s.stop:
		}
	}()
}

// generate runs one blocking generation call for the minute containing t and
// packages the result.
func (s *Scheduler) generate(kind genKind, t time.Time) genResult {
	minute := t.Truncate(time.Minute)
	label := TimeLabel(minute)
	text := s.gen.Generate(context.Background(), label)
	return genResult{
		kind:         kind,
		text:         text,
		timeLabel:    label,
		timestamp:    minute.UnixMilli(),
		minuteOfHour: minute.Minute(),
	}
}

func (s *Scheduler) pruneHistory() {
	deleted, err := s.db.Prune(s.retentionHours)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("pruned poem history", "deleted", deleted, "retention_hours", s.retentionHours)
	}
}

// currentMinute returns the served poem's minute, or -1 before the first poem.
func (s *Scheduler) currentMinute() int {
	if p := s.current.Load(); p != nil {
		return p.MinuteOfHour
	}
	return -1
}

// TimeLabel formats t the way the poems reference it, e.g. "10:33 AM".
func TimeLabel(t time.Time) string {
	return t.Format("3:04 PM")
}
