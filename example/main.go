// Demo: runs the browser checks against a local, flaky copy of the shop and
// serves the dashboard.
//
// Usage:
//
//	go run ./example
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/browser"
	"github.com/jpalmerr/sitewait/internal/monitor"
	"github.com/jpalmerr/sitewait/internal/runner"
	"github.com/jpalmerr/sitewait/internal/sitefixture"
)

const siteAddr = "localhost:9999"

func main() {
	logger := slog.Default()

	// start the local shop; it cycles through ok, slow and down
	site := sitefixture.NewFlaky(sitefixture.Handler(), logger)
	go func() {
		if err := http.ListenAndServe(siteAddr, site); err != nil {
			logger.Error("mock site error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	baseURL := "http://" + siteAddr
	wait := sitewait.ExplicitWait(5 * time.Second)

	m, err := monitor.New(
		monitor.WithDriverFactory(browser.Factory(browser.Options{
			Engine:   browser.Chromium,
			Headless: true,
			Install:  true,
			Logger:   logger,
		})),
		monitor.WithSite(runner.Site{
			BaseURL:   baseURL,
			AlertsURL: baseURL + "/alerts.html",
		}),
		monitor.WithJobs(
			runner.Job{Name: "Login", Kind: "login_valid", Wait: wait},
			runner.Job{Name: "Sort by price", Kind: "sort_hilo", Wait: wait},
			runner.Job{Name: "Add to cart", Kind: "add_to_cart", Wait: wait},
			runner.Job{Name: "Dialogs", Kind: "alerts", Wait: wait, Interval: 2 * time.Minute},
		),
		monitor.WithInterval(30*time.Second),
		monitor.WithPort(8080),
		monitor.WithTitle("sitewait demo"),
		monitor.WithLaunchRate(1, 2),
		monitor.WithPreflight(true),
		monitor.WithResultCallback(func(r runner.Result) {
			if r.FailureKind == sitewait.FailureTimeout {
				fmt.Printf("  %s timed out (run %s)\n", r.Name, r.RunID)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  sitewait demo")
	fmt.Println()
	fmt.Println("  Dashboard:  http://localhost:8080")
	fmt.Printf("  Mock shop:  %s (flips between ok, slow and down)\n", baseURL)
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		slog.Error("sitewait error", "error", err)
		os.Exit(1)
	}
}
