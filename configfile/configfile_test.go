package configfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipshipyard/phishing-detect/detector"
)

const legacyJSON = `{
  "version": 2,
  "tolerance": 2,
  "fuzzylist": [
    "metamask.io"
  ],
  "whitelist": [
    "metamask.io"
  ],
  "blacklist": [
    "evil.example"
  ]
}
`

const chainJSON = `[
  {
    "name": "MetaMask",
    "version": 1,
    "tolerance": 2,
    "fuzzylist": [
      "metamask.io"
    ],
    "allowlist": [
      "metamask.io"
    ],
    "blocklist": [
      "evil.example"
    ]
  }
]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	legacyPath := filepath.Join(dir, "config.json")
	writeFile(t, legacyPath, legacyJSON)
	in, err := Load(legacyPath)
	require.NoError(t, err)
	assert.IsType(t, detector.LegacyConfig{}, in)

	chainPath := filepath.Join(dir, "chain.json")
	writeFile(t, chainPath, chainJSON)
	in, err = Load(chainPath)
	require.NoError(t, err)
	chain, ok := in.(detector.Chain)
	require.True(t, ok)
	assert.Equal(t, "MetaMask", chain[0].Name)

	badPath := filepath.Join(dir, "bad.json")
	writeFile(t, badPath, `{"tolerance": 2}`)
	_, err = Load(badPath)
	assert.ErrorIs(t, err, detector.ErrInvalidConfig)
	assert.Contains(t, err.Error(), badPath)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeLayout(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{legacyJSON, chainJSON} {
		in, err := detector.ParseInput([]byte(doc))
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, in))
		assert.Equal(t, doc, buf.String())
	}
}

func TestSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, "{}")

	in, err := detector.ParseInput([]byte(legacyJSON))
	require.NoError(t, err)
	require.NoError(t, Save(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacyJSON, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")

	err = Save(path, detector.Chain{{Name: ""}})
	assert.ErrorIs(t, err, detector.ErrInvalidConfig)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, legacyJSON, string(data), "an invalid configuration is not written")
}

func TestParseHosts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "plain hosts",
			input:    "evil.example\nlogin.phish.example\n",
			expected: []string{"evil.example", "login.phish.example"},
		},
		{
			name:     "windows line endings CRLF",
			input:    "evil.example\r\nphish.example\r\n",
			expected: []string{"evil.example", "phish.example"},
		},
		{
			name: "with comments",
			input: `# reported today
evil.example
; another comment style
phish.example ; inline comment
scam.example # inline comment`,
			expected: []string{"evil.example", "phish.example", "scam.example"},
		},
		{
			name:     "URLs reduce to hostname",
			input:    "https://Login.Evil.example:8443/wallet?x=1#top\nhttp://phish.example\n",
			expected: []string{"Login.Evil.example", "phish.example"},
		},
		{
			name:     "gateway links are kept",
			input:    "https://ipfs.io/ipfs/bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/index.html\n",
			expected: []string{"https://ipfs.io/ipfs/bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/index.html"},
		},
		{
			name:     "unicode names pass through",
			input:    "bücher.example\n",
			expected: []string{"bücher.example"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "URL without host skipped",
			input:    "file:///etc/hosts\nevil.example\n",
			expected: []string{"evil.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseHosts(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, legacyJSON)

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	r, err := w.Check("evil.example")
	require.NoError(t, err)
	assert.True(t, r.Result)
	assert.Equal(t, detector.TypeBlacklist, r.Type)

	r, err = w.Check("metamask.io")
	require.NoError(t, err)
	assert.False(t, r.Result)

	assert.False(t, w.LastUpdate().IsZero())
	assert.NotNil(t, w.Detector())
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, legacyJSON)

	var reloads, failures atomic.Int32
	w, err := NewWatcher(path, WithOnReload(func(in detector.Input, err error) {
		if err != nil {
			failures.Add(1)
			return
		}
		reloads.Add(1)
	}))
	require.NoError(t, err)
	defer w.Close()

	r, err := w.Check("new-scam.example")
	require.NoError(t, err)
	assert.False(t, r.Result)

	writeFile(t, path, strings.Replace(legacyJSON, `"evil.example"`, `"evil.example",
    "new-scam.example"`, 1))

	// Wait for reload (fsnotify + 100ms delay)
	assert.Eventually(t, func() bool {
		r, err := w.Check("new-scam.example")
		return err == nil && r.Result
	}, 2*time.Second, 50*time.Millisecond, "file should reload with the new blocklist entry")
	assert.Positive(t, reloads.Load())

	// An invalid edit keeps the previous configuration in service.
	writeFile(t, path, `{"tolerance": 2}`)
	assert.Eventually(t, func() bool {
		return failures.Load() > 0
	}, 2*time.Second, 50*time.Millisecond, "invalid file should be rejected")

	r, err = w.Check("new-scam.example")
	require.NoError(t, err)
	assert.True(t, r.Result)
}

func TestWatcherSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, chainJSON)

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	chain := w.Input().(detector.Chain)
	next := detector.Chain{chain[0].Clone()}
	next[0].Blocklist = append(next[0].Blocklist, "renamed.example")
	require.NoError(t, Save(path, next))

	assert.Eventually(t, func() bool {
		r, err := w.Check("renamed.example")
		return err == nil && r.Result && r.Name == "MetaMask"
	}, 2*time.Second, 50*time.Millisecond, "renamed file should be picked up")
}

func TestNewWatcherRejectsInvalidFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `"config"`)

	_, err := NewWatcher(path)
	assert.Error(t, err)
}

func TestWatcherCloseTwice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, legacyJSON)

	w, err := NewWatcher(path)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcherCloseFromOnReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, legacyJSON)

	var self atomic.Pointer[Watcher]
	closed := make(chan error, 1)
	w, err := NewWatcher(path, WithOnReload(func(detector.Input, error) {
		if w := self.Load(); w != nil {
			select {
			case closed <- w.Close():
			default:
			}
		}
	}))
	require.NoError(t, err)
	self.Store(w)

	writeFile(t, path, strings.Replace(legacyJSON, `"evil.example"`, `"evil.example",
    "new-scam.example"`, 1))

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close from the reload callback did not return")
	}

	select {
	case <-w.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not exit after Close")
	}
	assert.NoError(t, w.Close())
}
