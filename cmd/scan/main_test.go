package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     parsedName
		fullCode string
	}{
		{
			name: "plain code",
			in:   "PK-01-PD-1-2-AR3.pdf",
			want: parsedName{
				designer: "PK", line: "01", designStage: "PD",
				stage: "1", plot: "2", section: "AR", number: "3",
			},
			fullCode: "PK-01-PD-1-2-AR3",
		},
		{
			name: "internal code between plot and section",
			in:   "PK-01-PD-1-2-GT1-AR3.pdf",
			want: parsedName{
				designer: "PK", line: "01", designStage: "PD",
				stage: "1", plot: "2", internal: "GT1", section: "AR", number: "3",
			},
			fullCode: "PK-01-PD-1-2-GT1-AR3",
		},
		{
			name: "trailing revision marker ignored in code",
			in:   "PK-01-PD-1-2-AR3-2.1.pdf",
			want: parsedName{
				designer: "PK", line: "01", designStage: "PD",
				stage: "1", plot: "2", section: "AR", number: "3",
			},
			fullCode: "PK-01-PD-1-2-AR3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFileName(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, *got)
			require.Equal(t, tt.fullCode, got.fullCode())
		})
	}
}

func TestParseFileNameRejectsShortNames(t *testing.T) {
	for _, in := range []string{"plan.pdf", "PK-01-PD.pdf", "PK-01-PD-1-2.pdf"} {
		_, err := parseFileName(in)
		require.Error(t, err, in)
	}
}
