package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpilotio/node_agent_init/resolver"
	"github.com/hyperpilotio/node_agent_init/templating"
)

func writeTemp(
	tb testing.TB,
	dir string,
	name string,
	content string,
) string {
	tb.Helper()

	pa := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(pa, []byte(content), 0o600))

	return pa
}

func TestParseConfig_defaults(t *testing.T) {
	t.Setenv("NODE_AGENT_CONFIG", "")
	t.Setenv("NAMESPACE", "")

	cfg, err := parseConfig(
		flag.NewFlagSet("test", flag.ContinueOnError), nil,
	)
	require.NoError(t, err)

	assert.Equal(t, defaultConfigPath, cfg.configPath)
	assert.Equal(t, defaultConfigPath, cfg.output)
	assert.Equal(t, templating.DefaultStartTag, cfg.startTag)
	assert.Equal(t, templating.DefaultEndTag, cfg.endTag)
	assert.Equal(t, templating.DefaultBinding, cfg.binding)
	assert.Equal(t, resolver.DefaultNamespace, cfg.namespace)
	assert.True(t, cfg.validate)
}

func TestParseConfig_env_defaults(t *testing.T) {
	t.Setenv("NODE_AGENT_CONFIG", "/tmp/tasks.json")
	t.Setenv("NAMESPACE", "monitoring")

	cfg, err := parseConfig(
		flag.NewFlagSet("test", flag.ContinueOnError), nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tasks.json", cfg.configPath)
	assert.Equal(t, "monitoring", cfg.namespace)
}

func TestParseConfig_stdout_output(t *testing.T) {
	t.Parallel()

	cfg, err := parseConfig(
		flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-config", "in.json", "-output", "-"},
	)
	require.NoError(t, err)

	assert.Equal(t, "in.json", cfg.configPath)
	assert.Empty(t, cfg.output)
}

func TestParseConfig_empty_config(t *testing.T) {
	t.Parallel()

	_, err := parseConfig(
		flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-config", ""},
	)
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(
		t,
		int(syscall.EPERM),
		exitCode(fmt.Errorf("x: %w", resolver.ErrAuthConfig)),
	)
	assert.Equal(
		t,
		exitFailure,
		exitCode(fmt.Errorf("x: %w", resolver.ErrMissingEnvironment)),
	)
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestRun_env_substitution(t *testing.T) {
	t.Setenv("NODE_AGENT_INIT_TEST_HOST", "influx.local")

	dir := t.TempDir()
	tplPath := writeTemp(
		t, dir, "tasks.json",
		`{"host": "<%= a.env("NODE_AGENT_INIT_TEST_HOST") =>"}`,
	)

	err := run(
		context.Background(),
		[]string{"-config", tplPath},
	)
	require.NoError(t, err)

	got, err := os.ReadFile(tplPath) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, `{"host": "influx.local"}`, string(got))
}

func TestRun_missing_env_no_write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tpl := `{"host": "<%= a.env("NODE_AGENT_INIT_TEST_UNSET") =>"}`
	tplPath := writeTemp(t, dir, "tasks.json", tpl)

	err := run(
		context.Background(),
		[]string{"-config", tplPath},
	)
	require.ErrorIs(t, err, resolver.ErrMissingEnvironment)
	assert.Equal(t, exitFailure, exitCode(err))

	got, err := os.ReadFile(tplPath) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, tpl, string(got))
}

func TestRun_without_credentials(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tpl := `{"url": "<%= a.k8s_service("influxsrv") =>"}`
	tplPath := writeTemp(t, dir, "tasks.json", tpl)

	err := run(
		context.Background(),
		[]string{
			"-config", tplPath,
			"-kubeconfig", filepath.Join(dir, "missing"),
		},
	)
	require.ErrorIs(t, err, resolver.ErrAuthConfig)
	assert.Equal(t, int(syscall.EPERM), exitCode(err))

	got, err := os.ReadFile(tplPath) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, tpl, string(got))
}
