package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/speed-sign-mcp/internal/config"
)

// runApp runs the command line with args and returns the prepared
// environment and everything written to stdout.
func runApp(t *testing.T, args ...string) (*runtimeEnv, string, error) {
	t.Helper()

	env := &runtimeEnv{logger: zap.NewNop().Sugar()}
	app := newApp(env)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(append([]string{"speedsign"}, args...))
	return env, out.String(), err
}

// clearEnv hides any SPEEDSIGN_* variables set by the caller's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvExemplars, config.EnvLogLevel, config.EnvWorkers} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		debug     bool
		wantDebug bool
		wantInfo  bool
	}{
		{"info", false, false, true},
		{"warn", false, false, false},
		{"debug", false, true, true},
		{"error", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := newLogger(tt.level, tt.debug)
			if err != nil {
				t.Fatalf("newLogger failed: %v", err)
			}
			core := logger.Desugar().Core()
			if got := core.Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled: got %v, want %v", got, tt.wantDebug)
			}
			if got := core.Enabled(zapcore.InfoLevel); got != tt.wantInfo {
				t.Errorf("info enabled: got %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := newLogger("loud", false); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	cfgPath := writeConfig(t, "tuning.json", `{"workers": 2, "exemplar_path": "file.npy", "log_level": "warn"}`)

	tests := []struct {
		name          string
		env           map[string]string
		args          []string
		wantWorkers   int
		wantExemplars string
		wantLevel     string
	}{
		{
			name:          "defaults",
			wantWorkers:   1,
			wantExemplars: config.DefaultExemplarPath,
			wantLevel:     "info",
		},
		{
			name:          "file",
			args:          []string{"--config", cfgPath},
			wantWorkers:   2,
			wantExemplars: "file.npy",
			wantLevel:     "warn",
		},
		{
			name:          "environment over file",
			env:           map[string]string{config.EnvWorkers: "5", config.EnvExemplars: "env.npy"},
			args:          []string{"--config", cfgPath},
			wantWorkers:   5,
			wantExemplars: "env.npy",
			wantLevel:     "warn",
		},
		{
			name:          "environment level",
			env:           map[string]string{config.EnvLogLevel: "error"},
			args:          []string{"--config", cfgPath},
			wantWorkers:   2,
			wantExemplars: "file.npy",
			wantLevel:     "error",
		},
		{
			name:          "flags over environment",
			env:           map[string]string{config.EnvWorkers: "5", config.EnvExemplars: "env.npy"},
			args:          []string{"--config", cfgPath, "--workers", "7", "--exemplars", "flag.npy"},
			wantWorkers:   7,
			wantExemplars: "flag.npy",
			wantLevel:     "warn",
		},
		{
			name:          "debug flag",
			env:           map[string]string{config.EnvLogLevel: "error"},
			args:          []string{"--config", cfgPath, "--debug"},
			wantWorkers:   2,
			wantExemplars: "file.npy",
			wantLevel:     "debug",
		},
		{
			name:          "zero workers flag",
			env:           map[string]string{config.EnvWorkers: "5"},
			args:          []string{"--workers", "0"},
			wantWorkers:   0,
			wantExemplars: config.DefaultExemplarPath,
			wantLevel:     "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			env, out, err := runApp(t, append(tt.args, "version")...)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if !strings.Contains(out, "speedsign "+Version) {
				t.Errorf("version output: got %q", out)
			}
			if got := env.cfg.GetWorkers(); got != tt.wantWorkers {
				t.Errorf("workers: got %d, want %d", got, tt.wantWorkers)
			}
			if got := env.cfg.GetExemplarPath(); got != tt.wantExemplars {
				t.Errorf("exemplar path: got %q, want %q", got, tt.wantExemplars)
			}
			if got := env.cfg.GetLogLevel(); got != tt.wantLevel {
				t.Errorf("log level: got %q, want %q", got, tt.wantLevel)
			}
		})
	}
}

func TestLoadConfig_FileKeepsProposerDefaults(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, "tuning.json", `{"min_area": 900}`)

	env, _, err := runApp(t, "--config", cfgPath, "version")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	pc := env.cfg.ProposerConfig()
	if pc.MinArea != 900 {
		t.Errorf("MinArea: got %d, want 900", pc.MinArea)
	}
	if want := config.DefaultTuningConfig().ProposerConfig(); pc.MinSide != want.MinSide {
		t.Errorf("MinSide: got %d, want default %d", pc.MinSide, want.MinSide)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing file", nil, []string{"--config", filepath.Join(t.TempDir(), "none.json")}},
		{"wrong extension", nil, []string{"--config", writeConfig(t, "tuning.yaml", "{}")}},
		{"bad json", nil, []string{"--config", writeConfig(t, "broken.json", "{")}},
		{"bad env workers", map[string]string{config.EnvWorkers: "many"}, nil},
		{"bad env level", map[string]string{config.EnvLogLevel: "loud"}, nil},
		{"negative workers flag", nil, []string{"--workers=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, _, err := runApp(t, append(tt.args, "version")...); err == nil {
				t.Error("expected a configuration error")
			}
		})
	}
}
