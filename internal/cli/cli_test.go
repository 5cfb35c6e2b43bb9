package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"despesas/internal/amqp"
	"despesas/internal/config"
	applog "despesas/internal/log"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"format", "15000"}, "R$\u00a0150,00"},
		{[]string{"format", "R$", "1,505"}, "R$\u00a015,05"},
		{[]string{"format"}, "R$\u00a00,00"},
		{[]string{"format", "-150"}, "R$\u00a01,50"},
		{[]string{"format", "--", "1"}, "R$\u00a00,01"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCommandHelp(t *testing.T) {
	out, err := execute(t, "format", "--help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "despesas format -150") {
		t.Errorf("help output = %q", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "despesas test") {
		t.Errorf("version output = %q", out)
	}
}

func TestInvalidBackendFlagFailsValidation(t *testing.T) {
	_, err := execute(t, "serve", "--backend", "sheets")
	if err == nil || !strings.Contains(err.Error(), "invalid data backend") {
		t.Fatalf("expected backend validation error, got %v", err)
	}
}

func TestEventsWatchRequiresBroker(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	_, err := execute(t, "events", "watch")
	if err == nil || !strings.Contains(err.Error(), "AMQP_URL") {
		t.Fatalf("expected missing broker error, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "DESPESAS_CLI_TEST_PORT"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=9191\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv(key); got != "9191" {
		t.Errorf("%s = %q", key, got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("explicit missing env file should fail")
	}
}

func TestLoadAndValidateConfigOverride(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := LoadAndValidateConfig(func(c *config.Config) { c.Port = "7070" })
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q", cfg.Port)
	}

	if _, err := LoadAndValidateConfig(func(c *config.Config) { c.Port = "http" }); err == nil {
		t.Error("invalid port should fail validation")
	}
}

func TestSetupLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, &buf)
	t.Cleanup(func() {
		applog.SetDefault(applog.New(applog.Config{Output: io.Discard}))
	})

	logger.Debug("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestNewLedgerServiceMemory(t *testing.T) {
	cfg := config.Load()
	cfg.DataBackend = "memory"
	cfg.AMQPURL = ""

	reg, svc, err := NewLedgerService(context.Background(), cfg, applog.New(applog.Config{Output: io.Discard}))
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if _, err := svc.OpenLedger(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 1 {
		t.Errorf("registry holds %d ledgers, want 1", reg.Len())
	}
}

func TestPrintEventWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	emit := printEvent(&buf)
	for _, id := range []string{"a", "b"} {
		if err := emit(&amqp.LedgerEventMessage{Type: amqp.EventEntryAdded, LedgerID: id}); err != nil {
			t.Fatal(err)
		}
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], `"ledger_id":"b"`) {
		t.Errorf("output = %q", buf.String())
	}
}
