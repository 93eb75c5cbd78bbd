package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/holdfast-app/holdfast/internal/api"
	"github.com/holdfast-app/holdfast/internal/app/tracker"
	"github.com/holdfast-app/holdfast/internal/domain"
	"github.com/holdfast-app/holdfast/internal/infra/observability"
	"github.com/holdfast-app/holdfast/internal/infra/progressstore"
	"github.com/holdfast-app/holdfast/internal/infra/sqlite"
)

// Daemon holds every long-lived component for one HoldFast home.
type Daemon struct {
	Home    string
	Config  Config
	DB      *sqlite.DB
	Tracer  *observability.Tracer
	Tracker *tracker.Tracker
}

// New loads config, opens storage and loads the record.
// Unreadable storage entries are logged, never fatal.
func New(ctx context.Context, home string) (*Daemon, error) {
	cfg, err := LoadConfig(home)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, home, cfg, nil)
}

// NewWithConfig is New with an explicit config and clock (nil = wall clock).
func NewWithConfig(ctx context.Context, home string, cfg Config, clock domain.Clock) (*Daemon, error) {
	db, err := sqlite.OpenFile(cfg.DBPath(home))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tracer := observability.NewTracer(observability.TracerConfig{
		Enabled:  cfg.Telemetry.Tracing,
		MaxSpans: cfg.Telemetry.MaxSpans,
	})
	t := tracker.New(cfg.TrackerRuntime(), progressstore.New(db), clock, tracer)
	t.Load(ctx)

	return &Daemon{
		Home:    home,
		Config:  cfg,
		DB:      db,
		Tracer:  tracer,
		Tracker: t,
	}, nil
}

// Close releases storage.
func (d *Daemon) Close() error {
	return d.DB.Close()
}

// Handler builds the HTTP handler for the dashboard API.
func (d *Daemon) Handler() http.Handler {
	srv := api.NewServer(&api.ProgressAPI{Tracker: d.Tracker})
	if d.Config.Telemetry.Metrics {
		srv.EnableMetrics()
	}
	if d.Config.Telemetry.Tracing {
		srv.SetTracer(d.Tracer)
	}
	return srv.Handler()
}

// StartScheduler runs the midnight rollover job. Caller must Shutdown.
func (d *Daemon) StartScheduler() (gocron.Scheduler, error) {
	loc := d.Config.TrackerRuntime().Location
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(d.rollover),
		gocron.WithName("day-rollover"),
	)
	if err != nil {
		sched.Shutdown()
		return nil, fmt.Errorf("schedule rollover: %w", err)
	}

	sched.Start()
	return sched, nil
}

// rollover republishes day-dependent state at local midnight.
func (d *Daemon) rollover() {
	if d.Tracker.RefreshDay() {
		log.Printf("[scheduler] new day %s: check-in available", d.Tracker.Today())
	}
}

// Serve runs the dashboard API until ctx is cancelled.
func (d *Daemon) Serve(ctx context.Context) error {
	sched, err := d.StartScheduler()
	if err != nil {
		return err
	}
	defer sched.Shutdown()

	httpSrv := &http.Server{
		Addr:              d.Config.Addr(),
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] HoldFast listening on http://%s", d.Config.Addr())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("[daemon] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
