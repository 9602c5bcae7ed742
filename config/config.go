// Package config provides YAML configuration parsing for sitewait.
//
// A configuration file names the site under test, how browsers are
// launched, the default element wait and the checks to run.
//
// Example configuration:
//
//	base_url: https://www.saucedemo.com
//	interval: 5m
//
//	credentials:
//	  username: ${SAUCE_USER:-standard_user}
//	  password: ${SAUCE_PASSWORD}
//
//	wait:
//	  timeout: 5s
//	  poll_interval: 250ms
//	  ignore: [not_found, stale_reference]
//
//	checks:
//	  - name: Login
//	    kind: login_valid
//	  - name: Sort Z-A
//	    kind: sort_za
//	    interval: 15m
//
//	grids:
//	  - name: Add to cart
//	    kind: add_to_cart
//	    dimensions:
//	      position: ["1", "3", "6"]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/browser"
	"github.com/jpalmerr/sitewait/internal/checks"
)

// minInterval keeps a misconfigured schedule from launching a browser
// every few milliseconds.
const minInterval = 1 * time.Second

const (
	defaultPort           = 8080
	defaultInterval       = time.Minute
	defaultMaxConcurrency = 2
	defaultWaitTimeout    = 5 * time.Second
	defaultPollInterval   = 250 * time.Millisecond
)

var defaultIgnore = []string{"not_found", "stale_reference"}

// Config is the root configuration structure for sitewait.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "sitewait" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Interval is the default time between runs of a check. Defaults to 1m.
	Interval Duration `yaml:"interval"`

	// MaxConcurrency is how many browsers may be open at once. Defaults to 2.
	MaxConcurrency int `yaml:"max_concurrency"`

	// LaunchRate is the number of browser launches allowed per second.
	// Zero means unlimited.
	LaunchRate float64 `yaml:"launch_rate"`

	// LaunchBurst is how many launches may happen back to back. Defaults to 1.
	LaunchBurst int `yaml:"launch_burst"`

	// History is how many results per check the dashboard keeps.
	History int `yaml:"history"`

	// Preflight polls each check's start page over HTTP before launching
	// a browser. Defaults to true.
	Preflight *bool `yaml:"preflight"`

	// BaseURL is the root of the shop under test.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// AlertsURL is the page the alerts check drives.
	AlertsURL string `yaml:"alerts_url"`

	Credentials Credentials   `yaml:"credentials"`
	Browser     BrowserConfig `yaml:"browser"`

	// Wait is the element wait every check uses unless it overrides it.
	Wait WaitConfig `yaml:"wait"`

	Checks []CheckConfig `yaml:"checks"`

	// Grids expand one check kind into a job per parameter combination.
	Grids []GridConfig `yaml:"grids"`
}

// Credentials are the login the checks use.
// Values support environment variable substitution.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BrowserConfig controls how each check's browser is launched.
type BrowserConfig struct {
	// Engine is chromium, firefox or webkit. Defaults to chromium.
	Engine string `yaml:"engine"`

	// Headless defaults to true.
	Headless *bool `yaml:"headless"`

	// Install downloads the Playwright browsers on first launch.
	Install bool `yaml:"install"`

	Viewport ViewportConfig `yaml:"viewport"`

	// ActionTimeout bounds a single click or fill. Defaults to 5s.
	ActionTimeout Duration `yaml:"action_timeout"`

	// NavigationTimeout bounds a page load. Defaults to 30s.
	NavigationTimeout Duration `yaml:"navigation_timeout"`
}

// ViewportConfig is the page size in CSS pixels.
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// WaitConfig is the YAML form of [sitewait.PollConfig].
type WaitConfig struct {
	Timeout      Duration `yaml:"timeout"`
	PollInterval Duration `yaml:"poll_interval"`

	// Ignore lists failure kinds that are retried instead of ending the
	// wait. Leaving it out keeps the default; an empty list ignores nothing.
	Ignore []string `yaml:"ignore"`

	// MaxAttempts caps the number of attempts per wait. Zero means no cap.
	MaxAttempts int `yaml:"max_attempts"`
}

// CheckConfig defines a single scheduled check.
type CheckConfig struct {
	// Name is the display name shown in the dashboard.
	Name string `yaml:"name"`

	// Kind selects a registered check, see `sitewait checks`.
	Kind string `yaml:"kind"`

	// Interval overrides the global interval. Must be between 1s and 24h.
	Interval Duration `yaml:"interval"`

	// Timeout bounds a whole run, browser launch included.
	Timeout Duration `yaml:"timeout"`

	// Wait overrides fields of the global wait.
	Wait *WaitConfig `yaml:"wait"`

	// Params are check-specific settings. Values support environment
	// variable substitution.
	Params map[string]string `yaml:"params"`

	// Labels are metadata key-value pairs for grouping on the dashboard.
	Labels map[string]string `yaml:"labels"`
}

// GridConfig runs one check kind once per combination of dimension values.
//
// For example, with dimensions {position: ["1", "3"], user: [a, b]} the grid
// expands to 4 jobs. Each dimension value is passed to the check as a
// param and a label. Params may also be Go templates over the dimensions:
// {{.position}}.
type GridConfig struct {
	Name       string              `yaml:"name"`
	Kind       string              `yaml:"kind"`
	Dimensions map[string][]string `yaml:"dimensions"`
	Params     map[string]string   `yaml:"params"`
	Labels     map[string]string   `yaml:"labels"`
	Interval   Duration            `yaml:"interval"`
	Timeout    Duration            `yaml:"timeout"`
	Wait       *WaitConfig         `yaml:"wait"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults and validates it.
//
// Environment variables are expanded in URLs, credentials and check params.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Interval == 0 {
		c.Interval = Duration(defaultInterval)
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.LaunchBurst == 0 {
		c.LaunchBurst = 1
	}
	if c.Preflight == nil {
		preflight := true
		c.Preflight = &preflight
	}
	if c.BaseURL == "" {
		c.BaseURL = checks.DefaultBaseURL
	}
	if c.AlertsURL == "" {
		c.AlertsURL = checks.DefaultAlertsURL
	}
	if c.Credentials.Username == "" {
		c.Credentials.Username = checks.DefaultUsername
	}
	if c.Credentials.Password == "" {
		c.Credentials.Password = checks.DefaultPassword
	}
	if c.Browser.Engine == "" {
		c.Browser.Engine = string(browser.Chromium)
	}
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}
	if c.Wait.Timeout == 0 {
		c.Wait.Timeout = Duration(defaultWaitTimeout)
	}
	if c.Wait.PollInterval == 0 {
		c.Wait.PollInterval = Duration(defaultPollInterval)
	}
	if c.Wait.Ignore == nil {
		c.Wait.Ignore = append([]string(nil), defaultIgnore...)
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.LaunchRate < 0 {
		return fmt.Errorf("launch_rate cannot be negative, got %g", c.LaunchRate)
	}
	if c.LaunchBurst < 1 {
		return fmt.Errorf("launch_burst must be at least 1, got %d", c.LaunchBurst)
	}
	if c.History < 0 {
		return fmt.Errorf("history cannot be negative, got %d", c.History)
	}

	var err error
	if c.BaseURL, err = expandURL("base_url", c.BaseURL); err != nil {
		return err
	}
	if c.AlertsURL, err = expandURL("alerts_url", c.AlertsURL); err != nil {
		return err
	}
	if c.Credentials.Username, err = expandEnvVars(c.Credentials.Username); err != nil {
		return fmt.Errorf("credentials.username: %w", err)
	}
	if c.Credentials.Password, err = expandEnvVars(c.Credentials.Password); err != nil {
		return fmt.Errorf("credentials.password: %w", err)
	}

	if err := c.Browser.validate(); err != nil {
		return err
	}
	if _, err := c.Wait.pollConfig(nil); err != nil {
		return fmt.Errorf("wait: %w", err)
	}

	names := make(map[string]bool)
	for i := range c.Checks {
		ch := &c.Checks[i]

		if ch.Name == "" {
			return fmt.Errorf("checks[%d]: name is required", i)
		}
		context := fmt.Sprintf("checks[%d] (%s)", i, ch.Name)
		if names[ch.Name] {
			return fmt.Errorf("%s: duplicate name", context)
		}
		names[ch.Name] = true

		if err := validateSchedule(context, ch.Kind, ch.Interval, ch.Timeout); err != nil {
			return err
		}
		if err := expandParams(context, ch.Params); err != nil {
			return err
		}
		if _, err := c.Wait.pollConfig(ch.Wait); err != nil {
			return fmt.Errorf("%s: wait: %w", context, err)
		}
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.Name == "" {
			return fmt.Errorf("grids[%d]: name is required", i)
		}
		context := fmt.Sprintf("grids[%d] (%s)", i, g.Name)

		if err := validateSchedule(context, g.Kind, g.Interval, g.Timeout); err != nil {
			return err
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("%s: at least one dimension is required", context)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("%s: dimension %q has no values", context, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("%s: dimension %q has duplicate value %q", context, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}

		if err := expandParams(context, g.Params); err != nil {
			return err
		}
		// fail fast on templates that cannot parse
		for k, v := range g.Params {
			if _, err := template.New(k).Parse(v); err != nil {
				return fmt.Errorf("%s: params[%s]: invalid template: %w", context, k, err)
			}
		}
		if _, err := c.Wait.pollConfig(g.Wait); err != nil {
			return fmt.Errorf("%s: wait: %w", context, err)
		}

		// expanded names must not collide with each other or with checks
		for _, combo := range cartesianProduct(g.Dimensions) {
			name := buildGridName(g.Name, combo)
			if names[name] {
				return fmt.Errorf("%s: expanded name %q is already used", context, name)
			}
			names[name] = true
		}
	}

	if len(c.Checks) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one check or grid must be defined")
	}

	return nil
}

func (b *BrowserConfig) validate() error {
	switch browser.Engine(b.Engine) {
	case browser.Chromium, browser.Firefox, browser.WebKit:
	default:
		return fmt.Errorf("browser.engine must be chromium, firefox or webkit, got %q", b.Engine)
	}
	if b.Viewport.Width < 0 || b.Viewport.Height < 0 {
		return fmt.Errorf("browser.viewport cannot be negative, got %dx%d", b.Viewport.Width, b.Viewport.Height)
	}
	if b.ActionTimeout < 0 {
		return fmt.Errorf("browser.action_timeout cannot be negative, got %s", b.ActionTimeout.Duration())
	}
	if b.NavigationTimeout < 0 {
		return fmt.Errorf("browser.navigation_timeout cannot be negative, got %s", b.NavigationTimeout.Duration())
	}
	return nil
}

// pollConfig merges override onto w and converts the result.
func (w WaitConfig) pollConfig(override *WaitConfig) (sitewait.PollConfig, error) {
	merged := w
	if override != nil {
		if override.Timeout != 0 {
			merged.Timeout = override.Timeout
		}
		if override.PollInterval != 0 {
			merged.PollInterval = override.PollInterval
		}
		if override.Ignore != nil {
			merged.Ignore = override.Ignore
		}
		if override.MaxAttempts != 0 {
			merged.MaxAttempts = override.MaxAttempts
		}
	}

	opts := []sitewait.PollOption{
		sitewait.WithTimeout(merged.Timeout.Duration()),
		sitewait.WithPollInterval(merged.PollInterval.Duration()),
		sitewait.WithMaxAttempts(merged.MaxAttempts),
	}
	kinds := make([]sitewait.FailureKind, 0, len(merged.Ignore))
	for _, s := range merged.Ignore {
		k, err := sitewait.ParseFailureKind(s)
		if err != nil {
			return sitewait.PollConfig{}, err
		}
		kinds = append(kinds, k)
	}
	if len(kinds) > 0 {
		opts = append(opts, sitewait.Ignoring(kinds...))
	}
	return sitewait.NewPollConfig(opts...)
}

func validateSchedule(context, kind string, interval, timeout Duration) error {
	if kind == "" {
		return fmt.Errorf("%s: kind is required", context)
	}
	if _, ok := checks.Lookup(kind); !ok {
		return fmt.Errorf("%s: unknown check kind %q (run `sitewait checks` to list them)", context, kind)
	}

	if interval != 0 {
		if interval.Duration() < minInterval {
			return fmt.Errorf("%s: interval must be at least %s, got %s", context, minInterval, interval.Duration())
		}
		if interval.Duration() > 24*time.Hour {
			return fmt.Errorf("%s: interval must not exceed 24h, got %s", context, interval.Duration())
		}
	}

	if timeout != 0 && timeout.Duration() < time.Second {
		return fmt.Errorf("%s: timeout must be at least 1s if specified, got %s", context, timeout.Duration())
	}
	return nil
}

func expandURL(field, raw string) (string, error) {
	expanded, err := expandEnvVars(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}

	parsed, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("%s: invalid url: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%s: url scheme must be http or https, got %q", field, parsed.Scheme)
	}
	return strings.TrimRight(expanded, "/"), nil
}

func expandParams(context string, params map[string]string) error {
	for k, v := range params {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s: params[%s]: %w", context, k, err)
		}
		params[k] = expanded
	}
	return nil
}
