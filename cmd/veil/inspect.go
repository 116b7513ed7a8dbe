package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veil-dev/veil/pkg/inspect"
	"github.com/veil-dev/veil/pkg/observe"
	"github.com/veil-dev/veil/pkg/reactive"
)

func inspectCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
		tracks   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run a demo reactive graph and serve the live inspector",
		Long: `Runs a small reactive graph that mutates itself on a timer and serves
the inspector over HTTP:

  GET /events   live change-notification stream (websocket, JSON)
  GET /metrics  Prometheus metrics
  GET /healthz  liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(addr, interval, tracks)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "demo mutation interval")
	cmd.Flags().BoolVar(&tracks, "tracks", false, "stream track events too")
	return cmd
}

func runInspect(addr string, interval time.Duration, tracks bool) error {
	reactive.DevMode = true

	removeMetrics := reactive.RegisterHooks(observe.NewMetrics())
	defer removeMetrics()

	srv := inspect.NewServer(inspect.WithTracks(tracks))
	defer srv.Close()

	stop := make(chan struct{})
	go demoGraph(interval, stop)
	defer close(stop)

	success("inspector listening on %s", addr)
	info("events:  ws://localhost%s/events", addr)
	info("metrics: http://localhost%s/metrics", addr)

	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		info("shutting down")
		return httpSrv.Close()
	}
}

// demoGraph builds a small state tree and mutates it on a timer so the
// inspector has something to show.
func demoGraph(interval time.Duration, stop <-chan struct{}) {
	state := reactive.Reactive(map[string]any{
		"requests": 0,
		"latency":  0.0,
		"backends": &[]any{"alpha", "beta"},
	}).(*reactive.Record)

	total := reactive.NewComputed(func() any {
		return state.Get("requests").(int) * 2
	})

	reactive.NewEffect(func() reactive.Cleanup {
		_ = total.Get()
		_ = state.Get("latency")
		return nil
	}, reactive.EffectName("demo-aggregator"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	names := []string{"gamma", "delta", "epsilon"}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			reactive.Batch(func() {
				state.Set("requests", state.Get("requests").(int)+1)
				state.Set("latency", rand.Float64()*50)
			})
			if backends, ok := state.Get("backends").(*reactive.List); ok {
				if backends.Len() > 4 {
					backends.Shift()
				} else {
					backends.Push(names[rand.Intn(len(names))])
				}
			}
			_ = fmt.Sprintf("%v", total.Peek())
		}
	}
}
