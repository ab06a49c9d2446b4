package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"evcal/internal/clock"
	"evcal/internal/config"
	"evcal/internal/festival"
	appLog "evcal/internal/log"
	"evcal/internal/metrics"
	"evcal/internal/notify"
	"evcal/internal/persist"
	"evcal/internal/reminder"
	"evcal/internal/scheduler"
	"evcal/internal/store"
	"evcal/internal/web"
)

// runtime is everything a serving process owns.
type runtime struct {
	cfg       *config.Config
	clock     *clock.Live
	metrics   *metrics.Metrics
	queue     *notify.Queue
	store     *store.Store
	scanner   *reminder.Scanner
	festivals festival.Table
	sched     *scheduler.Scheduler
}

// newRuntime builds the store and its observers. src drives both the
// clock tick and the reminder scan.
func newRuntime(cfg *config.Config, src clock.Clock, p store.Persister) (*runtime, error) {
	fpath, err := cfg.FestivalsFile()
	if err != nil {
		return nil, err
	}
	fest, err := festival.Load(fpath)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:       cfg,
		clock:     clock.NewLive(src),
		metrics:   metrics.New(),
		festivals: fest,
		sched:     scheduler.New(),
	}
	rt.queue = notify.New(notify.WithClock(rt.clock), notify.WithDisplay(cfg.NotificationDisplay))
	rt.scanner = reminder.NewScanner(
		reminder.WithWindow(cfg.ReminderWindow),
		reminder.WithUpcoming(time.Duration(cfg.UpcomingMinutes)*time.Minute),
	)
	rt.store = store.Open(p, store.WithClock(src), store.WithChangeHook(rt.onChange))
	rt.syncSize()
	return rt, nil
}

func (rt *runtime) onChange(c store.Change) {
	rt.metrics.Mutation(string(c.Kind))
	rt.syncSize()
	if n, ok := notify.ChangeNotice(c); ok {
		rt.queue.Push(n)
		rt.metrics.Notification(n.Type)
		rt.metrics.Unread(rt.queue.Unread())
	}
}

func (rt *runtime) syncSize() {
	days := rt.store.Snapshot()
	rt.metrics.StoreSize(len(days), days.Count())
}

// scan runs one reminder pass at the source clock's instant and queues what
// fired. It returns how many notifications were queued.
func (rt *runtime) scan() int {
	start := time.Now()
	defer rt.metrics.Scan(start)

	fired := rt.scanner.Scan(rt.store.Snapshot(), rt.clock.Source.Now())
	for _, n := range fired {
		rt.queue.Push(n)
		rt.metrics.Notification(n.Type)
	}
	if len(fired) > 0 {
		rt.metrics.Unread(rt.queue.Unread())
		appLog.Info("reminder: notifications queued", "count", len(fired))
	}
	return len(fired)
}

func (rt *runtime) schedule() error {
	if err := rt.sched.Every(rt.cfg.ClockSchedule, "clock", func() { rt.clock.Tick() }); err != nil {
		return err
	}
	return rt.sched.Every(rt.cfg.ReminderSchedule, "reminder", func() { rt.scan() })
}

func (rt *runtime) server() *web.Server {
	return web.NewServer(rt.cfg, web.Deps{
		Store:     rt.store,
		Queue:     rt.queue,
		Festivals: rt.festivals,
		Clock:     rt.clock,
		Metrics:   rt.metrics,
	})
}

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	listen := ""
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the clock and reminder ticks.",
		Example: `
evcal serve
evcal serve --listen 0.0.0.0:8080
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			dir, err := cfg.DataPath()
			if err != nil {
				return err
			}
			disk, err := persist.OpenDisk(dir)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg, clock.System{}, disk)
			if err != nil {
				return err
			}
			if err := rt.schedule(); err != nil {
				return err
			}

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			appLog.Info("evcal starting", "data_dir", dir, "events", rt.store.Len())
			rt.clock.Tick()
			rt.sched.Start()

			serveErr := rt.server().ListenAndServe(ctx)
			cancel()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := rt.sched.Stop(stopCtx); err != nil {
				appLog.Warn("scheduler did not stop cleanly", "err", err)
			}
			if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
				return serveErr
			}
			appLog.Info("evcal stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config).")
	topLevel.AddCommand(cmd)
}
