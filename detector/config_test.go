package detector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputLegacy(t *testing.T) {
	t.Parallel()

	in, err := ParseInput([]byte(`{
  "version": 2,
  "tolerance": 2,
  "fuzzylist": ["metamask.io"],
  "whitelist": ["metamask.io"],
  "blacklist": ["evil.example"]
}`))
	require.NoError(t, err)

	legacy, ok := in.(LegacyConfig)
	require.True(t, ok, "object decodes to a legacy config")
	assert.Equal(t, NumberVersion(2), legacy.Version)
	require.NotNil(t, legacy.Tolerance)
	assert.Equal(t, 2, *legacy.Tolerance)
	assert.Equal(t, []string{"metamask.io"}, legacy.Fuzzylist)
	assert.Equal(t, []string{"metamask.io"}, legacy.Whitelist)
	assert.Equal(t, []string{"evil.example"}, legacy.Blacklist)
}

func TestParseInputChain(t *testing.T) {
	t.Parallel()

	in, err := ParseInput([]byte(`[
  {"name": "MetaMask", "version": 1, "allowlist": ["metamask.io"], "blocklist": [], "fuzzylist": [], "tolerance": 3},
  {"name": "Org", "version": "2024-01", "blocklist": ["evil.example"]}
]`))
	require.NoError(t, err)

	chain, ok := in.(Chain)
	require.True(t, ok)
	require.Len(t, chain, 2)
	assert.Equal(t, "MetaMask", chain[0].Name)
	assert.Equal(t, NumberVersion(1), chain[0].Version)
	assert.NotNil(t, chain[0].Fuzzylist, "explicit empty fuzzylist is kept")
	assert.Equal(t, StringVersion("2024-01"), chain[1].Version)
	assert.Nil(t, chain[1].Fuzzylist, "absent fuzzylist stays nil")
	assert.Nil(t, chain[1].Tolerance)
	assert.Equal(t, DefaultTolerance, chain[1].EffectiveTolerance())
}

func TestParseInputErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		reason Reason
		index  int
	}{
		{"string document", `"config"`, ReasonNotObject, -1},
		{"null document", `null`, ReasonNotObject, -1},
		{"chain with non-object", `[{"name":"a","version":1}, 7]`, ReasonNotObject, 1},
		{"chain with null", `[null]`, ReasonNotObject, 0},
		{"numeric name", `[{"name": 1, "version": 1}]`, ReasonInvalidName, 0},
		{"empty name", `[{"name": "", "version": 1}]`, ReasonInvalidName, 0},
		{"missing name", `[{"version": 1}]`, ReasonInvalidName, 0},
		{"boolean version", `[{"name": "a", "version": true}]`, ReasonInvalidVersion, 0},
		{"empty version", `[{"name": "a", "version": ""}]`, ReasonInvalidVersion, 0},
		{"object version", `[{"name": "a", "version": {}}]`, ReasonInvalidVersion, 0},
		{"tolerance before name", `[{"tolerance": 2}]`, ReasonToleranceWithoutFuzzylist, 0},
		{"null fuzzylist", `{"tolerance": 2, "fuzzylist": null}`, ReasonToleranceWithoutFuzzylist, -1},
		{"fractional tolerance", `{"tolerance": 1.5, "fuzzylist": []}`, ReasonInvalidTolerance, -1},
		{"negative tolerance", `{"tolerance": -1, "fuzzylist": []}`, ReasonInvalidTolerance, -1},
		{"list of numbers", `{"blacklist": [1, 2]}`, ReasonInvalidEntry, -1},
		{"empty entry", `{"whitelist": ["ok.example", ""]}`, ReasonInvalidEntry, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseInput([]byte(tt.input))
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
			assert.Equal(t, tt.index, ve.Index)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseInputZeroToleranceWithoutFuzzylist(t *testing.T) {
	t.Parallel()

	_, err := ParseInput([]byte(`{"tolerance": 0, "blacklist": ["evil.example"]}`))
	assert.NoError(t, err)
}

func TestValidationErrorEntry(t *testing.T) {
	t.Parallel()

	err := Validate(Config{Name: "n", Version: NumberVersion(1), Blocklist: []string{"a.example", "", "b.example"}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "blocklist", ve.List)
	assert.Equal(t, 1, ve.Entry)
	assert.Equal(t, "invalid config: invalid list entry (blocklist[1])", err.Error())
}

func TestConfigJSONRoundTrip(t *testing.T) {
	t.Parallel()

	legacy := LegacyConfig{
		Version:   NumberVersion(2),
		Tolerance: tolerance(2),
		Fuzzylist: []string{},
		Whitelist: []string{"metamask.io"},
		Blacklist: []string{},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"tolerance":2,"fuzzylist":[],"whitelist":["metamask.io"],"blacklist":[]}`, string(data))
	assert.Equal(t, `{"version":2,"tolerance":2,"fuzzylist":[],"whitelist":["metamask.io"],"blacklist":[]}`, string(data), "legacy field order")

	var back LegacyConfig
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, legacy, back)

	named := Config{Name: "MetaMask", Version: StringVersion("v1"), Blocklist: []string{"evil.example"}}
	data, err = json.Marshal(named)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"MetaMask","version":"v1","allowlist":[],"blocklist":["evil.example"]}`, string(data))
}

func TestCheckResultJSON(t *testing.T) {
	t.Parallel()

	v := NumberVersion(3)
	data, err := json.Marshal(CheckResult{Result: true, Type: TypeBlocklist, Match: "evil.example", Name: "n", Version: &v})
	require.NoError(t, err)
	assert.Equal(t, `{"result":true,"type":"blocklist","match":"evil.example","name":"n","version":3}`, string(data))

	data, err = json.Marshal(CheckResult{Type: TypeAll})
	require.NoError(t, err)
	assert.Equal(t, `{"result":false,"type":"all"}`, string(data))
}
