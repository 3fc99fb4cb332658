package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/nodeflux/internal/config"
	"github.com/petrijr/nodeflux/pkg/nodes/broker"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	require.Equal(t, "nodeflux dev\n", out)
}

func TestNodesList(t *testing.T) {
	out, err := runCLI(t, "nodes", "list")
	require.NoError(t, err)
	for _, id := range []string{"test_node", "test_node_2", "stock_recommend_gemini", "web_summary_gemini", "youtube_summary_gemini", "stock_buy_node"} {
		require.Contains(t, out, id)
	}
	require.Contains(t, out, "number, text*")
}

func TestNodesRunInlinePayload(t *testing.T) {
	out, err := runCLI(t, "nodes", "run", "test_node", "--payload", `{"text":"hello","number":3}`)
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.Equal(t, true, env["success"])
	require.Equal(t, map[string]any{"processed": "[3] HELLO", "length": float64(5)}, env["outputs"])
}

func TestNodesRunYAMLFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "payload.yaml")
	require.NoError(t, os.WriteFile(file, []byte("text1: 안녕\ntext2: world\n"), 0o644))

	out, err := runCLI(t, "nodes", "run", "test_node_2", "--file", file)
	require.NoError(t, err)
	require.Contains(t, out, `"processed": "[안녕] [world]"`)
}

func TestNodesRunFailureIsAnError(t *testing.T) {
	out, err := runCLI(t, "nodes", "run", "nonexistent-id")
	require.ErrorContains(t, err, "not_found")
	require.Contains(t, out, `"Node 'nonexistent-id' not found"`)

	_, err = runCLI(t, "nodes", "run", "test_node", "--payload", `{"number":1}`)
	require.ErrorContains(t, err, "validation_failed")
}

func TestNodesRunFlagsAreExclusive(t *testing.T) {
	_, err := runCLI(t, "nodes", "run", "test_node", "--payload", `{}`, "--file", "x.yaml")
	require.Error(t, err)
}

func TestBadLogFormatFailsStartup(t *testing.T) {
	_, err := runCLI(t, "nodes", "list", "--log-format", "xml")
	require.ErrorContains(t, err, "log.format")
}

func TestReadPayload(t *testing.T) {
	p, err := readPayload("", "")
	require.NoError(t, err)
	require.Empty(t, p)

	p, err = readPayload(`{"n":3}`, "")
	require.NoError(t, err)
	require.Equal(t, json.Number("3"), p["n"])

	_, err = readPayload(`[1,2]`, "")
	require.ErrorIs(t, err, errPayloadNotObject)

	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(`{"text": "hi", "number": 2}`), 0o644))
	p, err = readPayload("", jsonFile)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"text": "hi", "number": 2}, p)

	listFile := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(listFile, []byte("- a\n- b\n"), 0o644))
	_, err = readPayload("", listFile)
	require.ErrorIs(t, err, errPayloadNotObject)

	_, err = readPayload("", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestNewBrokerSelectsDriver(t *testing.T) {
	var cfg config.Config
	cfg.Broker.Driver = "kis"
	require.IsType(t, &broker.KISBroker{}, newBroker(cfg))

	cfg.Broker.Driver = "paper"
	require.IsType(t, &broker.PaperBroker{}, newBroker(cfg))
}
