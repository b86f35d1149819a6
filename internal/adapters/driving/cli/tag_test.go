package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/damtag-cli/internal/core/domain"
)

func TestParseItemIDs(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []int64
		wantErr bool
	}{
		{"single", []string{"101"}, []int64{101}, false},
		{"comma separated", []string{"101,102,103"}, []int64{101, 102, 103}, false},
		{"repeated flag", []string{"101,102", "103"}, []int64{101, 102, 103}, false},
		{"spaces tolerated", []string{" 101 , 102 "}, []int64{101, 102}, false},
		{"empty parts skipped", []string{"101,,102"}, []int64{101, 102}, false},
		{"non-numeric", []string{"101,abc"}, nil, true},
		{"negative", []string{"-5"}, nil, true},
		{"none", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseItemIDs(tt.specs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOperations(t *testing.T) {
	ops, err := parseOperations(
		[]string{"Keywords=Red Kite", "Flag=Flagged"},
		[]string{"Keywords=draft"},
	)

	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, domain.BatchOperation{Tag: "Keywords", Value: "Red Kite"}, ops[0])
	assert.Equal(t, domain.BatchOperation{Tag: "Flag", Value: "Flagged"}, ops[1])
	assert.Equal(t, domain.BatchOperation{Tag: "Keywords", Value: "draft", Remove: true}, ops[2])
}

func TestParseOperations_ValueWithEquals(t *testing.T) {
	ops, err := parseOperations([]string{"Description=exposure=+1.5"}, nil)

	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "exposure=+1.5", ops[0].Value)
}

func TestParseOperations_Invalid(t *testing.T) {
	for _, spec := range []string{"NoSeparator", "=value", "Tag=", " = "} {
		_, err := parseOperations([]string{spec}, nil)
		assert.Error(t, err, "spec %q", spec)
	}
}
