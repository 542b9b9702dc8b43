package triggers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// MetricsSource supplies the latest metric values for a ticker when the
// scheduler fires.
type MetricsSource func(ticker string) (map[string]float64, error)

// AlertSink receives alerts raised by a scheduled evaluation.
type AlertSink func(ticker string, alerts []Alert)

// Scheduler runs trigger evaluation on a cron cadence for a fixed set of
// tickers.
type Scheduler struct {
	monitor *Monitor
	source  MetricsSource
	sink    AlertSink
	cron    *cron.Cron
	logger  zerolog.Logger
}

// NewScheduler wires a monitor to a metric source and an alert sink.
func NewScheduler(monitor *Monitor, source MetricsSource, sink AlertSink, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		monitor: monitor,
		source:  source,
		sink:    sink,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Schedule registers an evaluation job. spec is a standard cron
// expression, e.g. "0 7 * * 1-5" for weekday mornings.
func (s *Scheduler) Schedule(spec string, tickers []string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runOnce(tickers)
	})
	return err
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce(tickers []string) {
	today := time.Now()
	for _, ticker := range tickers {
		metrics, err := s.source(ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("trigger evaluation skipped, metrics unavailable")
			continue
		}
		alerts, err := s.monitor.Evaluate(ticker, metrics, today)
		if err != nil {
			s.logger.Error().Err(err).Str("ticker", ticker).Msg("trigger evaluation failed")
			continue
		}
		if len(alerts) == 0 {
			continue
		}
		s.logger.Info().Str("ticker", ticker).Int("alerts", len(alerts)).Msg("trigger alerts raised")
		if s.sink != nil {
			s.sink(ticker, alerts)
		}
	}
}
