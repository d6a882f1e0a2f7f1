package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// expirySchedule is a cron.Schedule that fires shortly before the stored
// access token expires. It re-reads the token on every call, so the next
// activation always follows the newest token. The delay is measured on the
// manager's clock and laid onto the cron's timeline.
type expirySchedule struct {
	m *Manager
}

// Next returns the zero time (never) when there is no decodable access token
func (s expirySchedule) Next(now time.Time) time.Time {
	delay, ok := refreshDelay(s.m.get(accessTokenKey), s.m.now())
	if !ok {
		return time.Time{}
	}
	return now.Add(delay)
}

// refreshScheduler owns the single background refresh entry
type refreshScheduler struct {
	m *Manager

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

func newRefreshScheduler(m *Manager) *refreshScheduler {
	return &refreshScheduler{m: m}
}

// Start begins background refreshing. The first refresh is scheduled from
// the stored access token, if any.
func (m *Manager) Start() {
	m.scheduler.start()
}

// Close stops background refreshing and waits for a running refresh to finish.
// The stored credential is left untouched.
func (m *Manager) Close() {
	m.scheduler.stop()
}

// NextRefresh reports when the background refresh will next run
func (m *Manager) NextRefresh() (time.Time, bool) {
	return m.scheduler.next()
}

func (s *refreshScheduler) start() {
	s.mu.Lock()
	if s.cron != nil {
		s.mu.Unlock()
		return
	}
	s.cron = cron.New(
		cron.WithLogger(cronLogger{logger: s.m.logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: s.m.logger})),
	)
	s.cron.Start()
	s.mu.Unlock()

	s.reschedule()
}

// reschedule replaces the pending refresh with one derived from the current
// access token. It is a no-op until start has been called.
func (s *refreshScheduler) reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	token := s.m.get(accessTokenKey)
	delay, ok := refreshDelay(token, s.m.now())
	if !ok {
		s.m.logger.Debug().Msg("No decodable access token, background refresh not scheduled")
		return
	}

	s.entryID = s.cron.Schedule(expirySchedule{m: s.m}, cron.FuncJob(s.run))
	s.m.logger.Debug().Dur("delay", delay).Msg("Background token refresh scheduled")
}

func (s *refreshScheduler) run() {
	s.m.logger.Debug().Msg("Running background token refresh")
	if _, ok := s.m.RefreshAccessToken(context.Background()); !ok {
		s.m.logger.Warn().Msg("Background token refresh failed")
	}
}

// cancel drops the pending refresh but keeps the scheduler running so a
// later login can schedule again.
func (s *refreshScheduler) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	s.entryID = 0
}

func (s *refreshScheduler) stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.entryID = 0
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
}

func (s *refreshScheduler) next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || s.entryID == 0 {
		return time.Time{}, false
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() || entry.Next.IsZero() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
