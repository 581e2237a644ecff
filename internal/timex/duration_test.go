package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type holder struct {
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

func TestDuration_JSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string", `{"timeout":"5s"}`, 5 * time.Second, false},
		{"nanoseconds", `{"timeout":1000000}`, time.Millisecond, false},
		{"bad string", `{"timeout":"soon"}`, 0, true},
		{"bool", `{"timeout":true}`, 0, true},
		{"null", `{"timeout":null}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h holder
			err := json.Unmarshal([]byte(tt.in), &h)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Timeout.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(holder{Timeout: Duration{2 * time.Minute}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"2m0s"}`, string(b))
}

func TestDuration_YAML(t *testing.T) {
	var h holder
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 250ms\n"), &h))
	assert.Equal(t, 250*time.Millisecond, h.Timeout.Duration)

	require.NoError(t, yaml.Unmarshal([]byte("timeout: 3000\n"), &h))
	assert.Equal(t, 3000*time.Nanosecond, h.Timeout.Duration)

	require.Error(t, yaml.Unmarshal([]byte("timeout: later\n"), &h))
}
