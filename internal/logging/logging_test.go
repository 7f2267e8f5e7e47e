package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFormat_Decode(t *testing.T) {
	tests := []struct {
		in       string
		expected LogFormat
		wantErr  bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{" JSON ", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f LogFormat
			err := f.Decode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestNewLogger(t *testing.T) {
	assert.IsType(t, &logrus.JSONFormatter{}, NewLogger(FormatJSON).Formatter)
	assert.IsType(t, &logrus.TextFormatter{}, NewLogger(FormatText).Formatter)
}
