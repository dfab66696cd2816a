package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows_ByExtension(t *testing.T) {
	csvRows, err := parseRows("lectures.CSV", strings.NewReader("path,type,name,url,order\nNursing,video,Intro,https://youtu.be/abc,1\n"))
	require.NoError(t, err)
	require.Len(t, csvRows, 1)
	assert.Equal(t, "Intro", csvRows[0].Name)
	assert.Equal(t, 1, csvRows[0].Order)

	yamlRows, err := parseRows("manifest.yml", strings.NewReader("rows:\n  - path: Nursing\n    type: pdf\n    name: Notes\n"))
	require.NoError(t, err)
	require.Len(t, yamlRows, 1)
	assert.Equal(t, "pdf", yamlRows[0].Type)

	// Unknown extensions are read as CSV.
	_, err = parseRows("rows.txt", strings.NewReader("name,type\nA,folder\n"))
	assert.NoError(t, err)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
