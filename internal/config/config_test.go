package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "json", cfg.Codec)
	assert.Equal(t, -1, cfg.MaxDepth)
	assert.Equal(t, 32, cfg.ReceiveMaxDepth)
	assert.Equal(t, "blake2b", cfg.Fingerprint.Algorithm)
	assert.Empty(t, cfg.Send.Mask)
	assert.Same(t, cfg, GetConfig())
}

func TestLoad_FromFile(t *testing.T) {
	Reset()
	defer Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
  format: json
codec: msgpack
max_depth: 4
store:
  path: /tmp/faultline/journal.db
send:
  mask:
    - key: clientIp
      type: ip
  redact:
    - key: password
      replacement: "[REDACTED]"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "msgpack", cfg.Codec)
	assert.Equal(t, 4, cfg.MaxDepth)
	assert.Equal(t, "/tmp/faultline/journal.db", cfg.Store.Path)
	require.Len(t, cfg.Send.Mask, 1)
	assert.Equal(t, MaskRule{Key: "clientIp", Type: "ip"}, cfg.Send.Mask[0])
	require.Len(t, cfg.Send.Redact, 1)
	assert.Equal(t, RedactRule{Key: "password", Replacement: "[REDACTED]"}, cfg.Send.Redact[0])
}

func TestLoad_MissingFile(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Codec)
}

func TestLoad_Env(t *testing.T) {
	Reset()
	defer Reset()

	t.Setenv("FAULTLINE_CODEC", "yaml")
	t.Setenv("FAULTLINE_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Codec)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"codec", "codec: xml\n"},
		{"algorithm", "fingerprint:\n  algorithm: md5\n"},
		{"mask type", "send:\n  mask:\n    - key: email\n      type: rot13\n"},
		{"mask key", "send:\n  mask:\n    - type: email\n"},
		{"redact key", "send:\n  redact:\n    - replacement: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			defer Reset()

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestJournalPath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Path: "/var/lib/faultline.db"}}
	path, err := cfg.JournalPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/faultline.db", path)

	cfg.Store.Path = ""
	path, err = cfg.JournalPath()
	require.NoError(t, err)
	assert.Equal(t, "journal.db", filepath.Base(path))
}

func TestSetAndSave(t *testing.T) {
	Reset()
	defer Reset()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	_, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, Set("codec", "bson"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved map[string]any
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "bson", saved["codec"])
}

func TestSave_NoPath(t *testing.T) {
	Reset()
	defer Reset()

	assert.Error(t, Save())
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	cfg := &Config{Codec: "yaml", Fingerprint: FingerprintConfig{Algorithm: "sha256"}}

	require.NoError(t, SaveTo(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "yaml", got.Codec)
	assert.Equal(t, "sha256", got.Fingerprint.Algorithm)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/journal.db", filepath.Join(home, "journal.db")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
