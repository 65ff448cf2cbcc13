package fsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatterns_Match(t *testing.T) {
	p, err := CompilePatterns([]string{".*", "*.part", "Case_id_1/tmp/**"})
	require.NoError(t, err)

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: ".DS_Store", want: true},
		{rel: "Case_id_2/.hidden", want: true},
		{rel: "Case_id_2/report.img.part", want: true},
		{rel: "Case_id_1/tmp/deep/x.img", want: true},
		{rel: "Case_id_1/report.img", want: false},
		{rel: "Case_id_2/tmp/x.img", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Match(tt.rel))
		})
	}
}

func TestPatterns_Empty(t *testing.T) {
	p, err := CompilePatterns(nil)
	require.NoError(t, err)
	assert.False(t, p.Match("anything"))

	var nilPatterns *Patterns
	assert.False(t, nilPatterns.Match("anything"))
}

func TestCompilePatterns_Invalid(t *testing.T) {
	_, err := CompilePatterns([]string{"[unterminated"})
	assert.Error(t, err)
}

func TestMatchFilePatterns(t *testing.T) {
	tempDir := t.TempDir()
	createTree(t, tempDir,
		"foo.img",
		"foo.part",
		"bar.txt",
		"subdir/qux.img",
	)

	matches, err := MatchFilePatterns(tempDir, []string{"*.img"}, 10)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(tempDir, "foo.img"),
		filepath.Join(tempDir, "subdir/qux.img"),
	}, matches)

	// no batch size limit and a missing directory
	matches, err = MatchFilePatterns(filepath.Join(tempDir, "missing"), []string{"*"}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
