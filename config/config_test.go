package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Swind/go-nav-runner/core"
	"github.com/Swind/go-nav-runner/router"
	"github.com/Swind/go-nav-runner/viewport"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// replaceFile swaps content in with a rename so watchers never observe a
// truncated file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	writeFile(t, tmp, content)
	require.NoError(t, os.Rename(tmp, path))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "index", cfg.Index)
	require.True(t, cfg.Route)
	require.Empty(t, cfg.Template)
	require.Equal(t, "", cfg.Viewport.Transition)
	require.Equal(t, time.Second, cfg.Timeout())
	require.Equal(t, "rebas", cfg.InitialDataKey)
	require.Equal(t, 100, cfg.HistoryCapacity)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndTemplateNormalization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navrunner.toml")
	writeFile(t, path, `
index = "home"
template = "layout"
timeout = 250
initial_data_key = "boot"

[viewport]
transition = "slide"
duration = 120

[metrics]
addr = ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "home", cfg.Index)
	require.Equal(t, []string{"layout"}, cfg.Template)
	require.Equal(t, 250*time.Millisecond, cfg.Timeout())
	require.Equal(t, "boot", cfg.InitialDataKey)
	require.Equal(t, "slide", cfg.Viewport.Transition)
	require.Equal(t, 120*time.Millisecond, cfg.TransitionDuration())
	require.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_TemplateList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navrunner.toml")
	writeFile(t, path, `template = ["layout", "footer"]`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"layout", "footer"}, cfg.Template)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NAVRUNNER_TIMEOUT", "300")
	t.Setenv("NAVRUNNER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 300*time.Millisecond, cfg.Timeout())
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, "timeout = -5\n[log]\nformat = \"xml\"\n")
	_, err = Load(path)
	require.ErrorContains(t, err, "timeout must be positive")
	require.ErrorContains(t, err, "unknown log format")
}

func TestConfig_NavigatorConfig(t *testing.T) {
	cfg := Default()
	cfg.TimeoutMS = 400
	cfg.HistoryCapacity = 7
	logger := core.NewNoOpLogger()

	nc := cfg.NavigatorConfig("main", logger, nil)
	require.Equal(t, "main", nc.Name)
	require.Equal(t, 400*time.Millisecond, nc.Timeout)
	require.Equal(t, 7, nc.HistoryCapacity)
	require.Same(t, logger, nc.Logger)
	require.NotNil(t, nc.Metrics)
}

type timeoutRecorder struct {
	mu  sync.Mutex
	got []time.Duration
}

func (r *timeoutRecorder) SetTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, d)
}

func (r *timeoutRecorder) last() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return 0
	}
	return r.got[len(r.got)-1]
}

func TestWatch_AppliesTimeoutChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navrunner.toml")
	writeFile(t, path, "timeout = 1000\n")

	w, err := Watch(path, nil)
	require.NoError(t, err)
	require.Equal(t, time.Second, w.Config().Timeout())

	rec := &timeoutRecorder{}
	w.Bind(rec)

	replaceFile(t, path, "timeout = 200\n")
	require.Eventually(t, func() bool {
		return rec.last() == 200*time.Millisecond
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, 200*time.Millisecond, w.Config().Timeout())
	require.GreaterOrEqual(t, w.Reloads(), 1)
}

type closableRecorder struct {
	timeoutRecorder
	closed bool
}

func (r *closableRecorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *closableRecorder) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func TestWatch_BindSkipsClosedTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navrunner.toml")
	writeFile(t, path, "timeout = 1000\n")

	w, err := Watch(path, nil)
	require.NoError(t, err)

	closed := &closableRecorder{}
	closed.close()
	live := &timeoutRecorder{}
	w.Bind(closed)
	w.Bind(live)

	replaceFile(t, path, "timeout = 300\n")
	require.Eventually(t, func() bool {
		return live.last() == 300*time.Millisecond
	}, 5*time.Second, 10*time.Millisecond)
	require.Zero(t, closed.last())
}

func TestWatch_BindNavigatorAfterShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navrunner.toml")
	writeFile(t, path, "timeout = 1000\n")

	w, err := Watch(path, nil)
	require.NoError(t, err)

	nav := core.NewNavigator(router.NewMemory("/", nil), viewport.NewHeadless(viewport.Options{}), nil)
	nav.Shutdown()
	w.Bind(nav)

	live := &timeoutRecorder{}
	w.Bind(live)
	replaceFile(t, path, "timeout = 300\n")
	require.Eventually(t, func() bool {
		return live.last() == 300*time.Millisecond
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, core.DefaultTimeout, nav.Timeout())
}

func TestWatch_InvalidChangeKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navrunner.toml")
	writeFile(t, path, "timeout = 500\n")

	w, err := Watch(path, nil)
	require.NoError(t, err)

	replaceFile(t, path, "timeout = 0\n")
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 500*time.Millisecond, w.Config().Timeout())
}

func TestWatch_RequiresFile(t *testing.T) {
	_, err := Watch("", nil)
	require.Error(t, err)
	_, err = Watch(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)
}
