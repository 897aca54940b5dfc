package matrix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		size    int
		cell    [3]float64 // i, j, want
		wantErr bool
	}{
		{name: "plain", input: "0,1\n1,0", size: 2, cell: [3]float64{0, 1, 1}},
		{name: "trailing newline", input: "0,1\n1,0\n", size: 2, cell: [3]float64{1, 0, 1}},
		{name: "trailing commas", input: "0,2.5,\n2.5,0,\n", size: 2, cell: [3]float64{0, 1, 2.5}},
		{name: "spaces and CRLF", input: " 0 , 3 \r\n 3 , 0 \r\n", size: 2, cell: [3]float64{1, 0, 3}},
		{name: "empty", input: "", size: 0},
		{name: "ragged", input: "0,1,1\n1,0\n", wantErr: true},
		{name: "not square", input: "0,1\n1,0\n1,1\n", wantErr: true},
		{name: "not numeric", input: "0,x\n1,0\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, gerrors.IsValidation(err), "expected validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, adj.Size())
			if tt.size > 0 {
				assert.Equal(t, tt.cell[2], adj.Row(int(tt.cell[0]))[int(tt.cell[1])])
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adj.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,1,0\n1,0,1\n0,1,0\n"), 0o644))

	adj, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, adj.Size())
	assert.Equal(t, []float64{1, 0, 1}, adj.Row(1))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestIdentityAndFromRows(t *testing.T) {
	id := Identity(3)
	assert.Equal(t, 1.0, id.Row(2)[2])
	assert.Equal(t, 0.0, id.Row(0)[2])
	assert.Equal(t, 0, Identity(0).Size())
	assert.Equal(t, []float64{0, 1, 0}, id.Row(1))

	adj, err := FromRows([][]float64{{0, 4}, {4, 0}})
	require.NoError(t, err)
	assert.Equal(t, 4.0, adj.Row(1)[0])
	assert.Equal(t, 2, adj.Size())
}
