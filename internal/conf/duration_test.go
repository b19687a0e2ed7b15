package conf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	d := Duration(10 * time.Second)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"10s"`, string(data))

	var back Duration
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}

func TestDuration_UnmarshalJSONVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string form", input: `"30s"`, want: 30 * time.Second},
		{name: "nanosecond number", input: `30000000000`, want: 30 * time.Second},
		{name: "null resets", input: `null`, want: 0},
		{name: "invalid string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Std())
		})
	}
}

func TestDuration_YAML(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, yaml.Unmarshal([]byte("5m"), &d))
	assert.Equal(t, 5*time.Minute, d.Std())

	out, err := yaml.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, "1m30s\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("[1, 2]"), &d))
}
