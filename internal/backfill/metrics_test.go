package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetrics(t *testing.T) {
	tests := []struct {
		in      string
		want    Metrics
		wantErr bool
	}{
		{in: "", want: AllMetrics()},
		{in: "issues", want: Metrics{Issues: true}},
		{in: "issues,labels", want: Metrics{Issues: true, Labels: true}},
		{in: "pulls, stars", want: Metrics{Pulls: true, Stars: true}},
		{in: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetrics(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown metric")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
