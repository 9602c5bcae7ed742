package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"text/template"

	"github.com/jpalmerr/sitewait/internal/browser"
	"github.com/jpalmerr/sitewait/internal/monitor"
	"github.com/jpalmerr/sitewait/internal/runner"
)

// BuildJobs converts parsed configuration into runner jobs.
//
// Checks come first in file order, followed by every grid expanded via
// cartesian product.
func BuildJobs(cfg *Config) ([]runner.Job, error) {
	var jobs []runner.Job

	for _, cc := range cfg.Checks {
		job, err := buildJob(cfg, cc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	for _, gc := range cfg.Grids {
		gridJobs, err := buildGridJobs(cfg, gc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, gridJobs...)
	}

	return jobs, nil
}

func buildJob(cfg *Config, cc CheckConfig) (runner.Job, error) {
	wait, err := cfg.Wait.pollConfig(cc.Wait)
	if err != nil {
		return runner.Job{}, fmt.Errorf("check (%s): wait: %w", cc.Name, err)
	}

	return runner.Job{
		Name:     cc.Name,
		Kind:     cc.Kind,
		Interval: cc.Interval.Duration(),
		Timeout:  cc.Timeout.Duration(),
		Wait:     wait,
		Params:   maps.Clone(cc.Params),
		Labels:   maps.Clone(cc.Labels),
	}, nil
}

// buildGridJobs expands a GridConfig into one job per dimension combination.
func buildGridJobs(cfg *Config, gc GridConfig) ([]runner.Job, error) {
	// use missingkey=error to fail fast on missing template variables
	templates := make(map[string]*template.Template, len(gc.Params))
	for k, v := range gc.Params {
		tmpl, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return nil, err
		}
		templates[k] = tmpl
	}

	var jobs []runner.Job
	for _, combo := range cartesianProduct(gc.Dimensions) {
		// dimension values are params too; explicit params win
		params := maps.Clone(combo)
		for k, tmpl := range templates {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, combo); err != nil {
				return nil, fmt.Errorf("grid (%s) with dimensions %v: params[%s]: %w", gc.Name, combo, k, err)
			}
			params[k] = buf.String()
		}

		// merge grid labels with dimension labels
		labels := maps.Clone(gc.Labels)
		if labels == nil {
			labels = make(map[string]string, len(combo))
		}
		maps.Copy(labels, combo)

		job, err := buildJob(cfg, CheckConfig{
			Name:     buildGridName(gc.Name, combo),
			Kind:     gc.Kind,
			Interval: gc.Interval,
			Timeout:  gc.Timeout,
			Wait:     gc.Wait,
			Params:   params,
			Labels:   labels,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// buildGridName creates a display name for a grid job.
func buildGridName(baseName string, combo map[string]string) string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	name := baseName
	for _, k := range keys {
		name += " " + combo[k]
	}
	return name
}

// cartesianProduct generates all combinations of dimension values.
func cartesianProduct(dimensions map[string][]string) []map[string]string {
	if len(dimensions) == 0 {
		return nil
	}

	// sort dimension keys for deterministic ordering
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// start with single empty combination
	result := []map[string]string{{}}

	for _, key := range keys {
		values := dimensions[key]
		var newResult []map[string]string

		for _, combo := range result {
			for _, val := range values {
				newCombo := maps.Clone(combo)
				newCombo[key] = val
				newResult = append(newResult, newCombo)
			}
		}
		result = newResult
	}

	return result
}

// BrowserOptions converts the browser section into session options.
func BrowserOptions(cfg *Config, logger *slog.Logger) browser.Options {
	headless := true
	if cfg.Browser.Headless != nil {
		headless = *cfg.Browser.Headless
	}

	return browser.Options{
		Engine:            browser.Engine(cfg.Browser.Engine),
		Headless:          headless,
		Install:           cfg.Browser.Install,
		ViewportWidth:     cfg.Browser.Viewport.Width,
		ViewportHeight:    cfg.Browser.Viewport.Height,
		ActionTimeout:     cfg.Browser.ActionTimeout.Duration(),
		NavigationTimeout: cfg.Browser.NavigationTimeout.Duration(),
		Logger:            logger,
	}
}

// BuildOptions converts parsed configuration into [monitor.Option] values.
//
// Every run gets a Playwright session built from the browser section.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]monitor.Option, error) {
	jobs, err := BuildJobs(cfg)
	if err != nil {
		return nil, err
	}

	opts := []monitor.Option{
		monitor.WithJobs(jobs...),
		monitor.WithDriverFactory(browser.Factory(BrowserOptions(cfg, logger))),
		monitor.WithSite(runner.Site{
			BaseURL:   cfg.BaseURL,
			AlertsURL: cfg.AlertsURL,
			Username:  cfg.Credentials.Username,
			Password:  cfg.Credentials.Password,
		}),
		monitor.WithInterval(cfg.Interval.Duration()),
		monitor.WithPort(cfg.Port),
		monitor.WithMaxConcurrency(cfg.MaxConcurrency),
		monitor.WithLaunchRate(cfg.LaunchRate, cfg.LaunchBurst),
		monitor.WithTitle(cfg.Title),
		monitor.WithPreflight(cfg.Preflight == nil || *cfg.Preflight),
	}
	if cfg.History > 0 {
		opts = append(opts, monitor.WithHistory(cfg.History))
	}
	if logger != nil {
		opts = append(opts, monitor.WithLogger(logger))
	}
	return opts, nil
}
