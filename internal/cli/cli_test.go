package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/faultline"
	"github.com/zoobzio/faultline/internal/config"
	"github.com/zoobzio/faultline/store"
)

type harness struct {
	t          *testing.T
	configPath string
}

func newHarness(t *testing.T, extra string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := "log:\n  format: json\nstore:\n  path: " + filepath.Join(dir, "journal.db") + "\n" + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return &harness{t: t, configPath: path}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	config.Reset()
	h.t.Cleanup(config.Reset)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.configPath, "--quiet"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

const typeErrorPayload = `{"name":"TypeError","message":"bad input","code":"E_INPUT"}`

func TestVersion(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "faultline dev")
}

func TestVersion_JSON(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run("", "version", "--json")
	require.NoError(t, err)

	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
}

func TestDecode(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run(typeErrorPayload, "decode")
	require.NoError(t, err)

	assert.Contains(t, out, "TypeError: bad input")
	assert.Contains(t, out, "code: E_INPUT")

	e := faultline.NewTypeError("bad input")
	e.WithCode("E_INPUT")
	fp, err := faultline.Fingerprint(e, faultline.HashBLAKE2b)
	require.NoError(t, err)
	assert.Contains(t, out, "fingerprint: "+fp)
}

func TestDecode_File(t *testing.T) {
	h := newHarness(t, "")
	path := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(typeErrorPayload), 0644))

	out, err := h.run("", "decode", "--untrusted", path)
	require.NoError(t, err)
	assert.Contains(t, out, "TypeError: bad input")
}

func TestDecode_Null(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run("null", "decode")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestDecode_NonError(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run(`[1,2]`, "decode")
	require.NoError(t, err)
	assert.Contains(t, out, "NonError: [1,2]")
}

func TestDecode_BadPayload(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.run(`{not json`, "decode")

	var codecErr *faultline.CodecError
	assert.ErrorAs(t, err, &codecErr)
}

func TestDecode_UnknownCodec(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.run(typeErrorPayload, "decode", "--codec", "xml")
	assert.Error(t, err)
}

func TestTranscode(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run(typeErrorPayload, "transcode", "--from", "json", "--to", "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "TypeError", got["name"])
	assert.Equal(t, "bad input", got["message"])
	assert.Equal(t, "E_INPUT", got["code"])
}

func TestTranscode_External(t *testing.T) {
	h := newHarness(t, `send:
  mask:
    - key: email
      type: email
  redact:
    - key: password
      replacement: "[REDACTED]"
`)
	payload := `{"name":"Error","message":"login failed","email":"alice@example.com","password":"hunter2"}`

	out, err := h.run(payload, "transcode", "--external", "--to", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "a***@example.com", got["email"])
	assert.Equal(t, "[REDACTED]", got["password"])
}

func TestJS_Throw(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run("", "js", "--eval", `throw new RangeError("nope")`)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "RangeError", got["name"])
	assert.Equal(t, "nope", got["message"])
}

func TestJS_Result(t *testing.T) {
	h := newHarness(t, "")
	out, err := h.run("", "js", "--eval", `({a: 1})`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}

func TestJS_File(t *testing.T) {
	h := newHarness(t, "")
	path := filepath.Join(t.TempDir(), "script.js")
	require.NoError(t, os.WriteFile(path, []byte(`null.x`), 0644))

	out, err := h.run("", "js", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"TypeError"`)
}

func TestJS_NoScript(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.run("", "js")
	assert.Error(t, err)
}

func TestJS_Timeout(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.run("", "js", "--timeout", "50ms", "--eval", `for (;;) {}`)
	assert.Error(t, err)
}

func TestJournal(t *testing.T) {
	h := newHarness(t, "")

	out, err := h.run(typeErrorPayload, "journal", "record")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = h.run("", "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "TypeError")

	out, err = h.run("", "journal", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "id: "+id)
	assert.Contains(t, out, "TypeError: bad input")

	e := faultline.NewTypeError("bad input")
	e.WithCode("E_INPUT")
	fp, err := faultline.Fingerprint(e, faultline.HashBLAKE2b)
	require.NoError(t, err)

	out, err = h.run("", "journal", "count", fp)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = h.run("", "journal", "delete", id)
	require.NoError(t, err)

	_, err = h.run("", "journal", "show", id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJournal_RecordFromJS(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.run("", "js", "--record", "--eval", `throw new URIError("bad uri")`)
	require.NoError(t, err)

	out, err := h.run("", "journal", "list", "--kind", "URIError")
	require.NoError(t, err)
	assert.Contains(t, out, "bad uri")
}

func TestJournal_RecordNull(t *testing.T) {
	h := newHarness(t, "")
	_, err := h.run("null", "journal", "record")
	assert.Error(t, err)
}

func TestReadInput(t *testing.T) {
	cmd := NewDecodeCmd()
	cmd.SetIn(strings.NewReader("stdin data"))

	data, err := readInput(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "stdin data", string(data))

	cmd.SetIn(strings.NewReader("dash data"))
	data, err = readInput(cmd, []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "dash data", string(data))

	_, err = readInput(cmd, []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
