package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	in := "\ufeffName,TYPE,path,order,url,notes\n" +
		"Intro,video,Week 1,3,https://youtu.be/abc,ignored\n" +
		"Handout,pdf,Week 1/Reading,,https://x/h.pdf,\n" +
		",,,,,\n" +
		"Site,link,,2.0,https://example.com,\n"

	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Path: "Week 1", Type: "video", Name: "Intro", URL: "https://youtu.be/abc", Order: 3}, rows[0])
	assert.Equal(t, 0, rows[1].Order)
	assert.Equal(t, "Week 1/Reading", rows[1].Path)
	assert.Equal(t, 2, rows[2].Order)
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("path,name\nA,B\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"type"`)
}

func TestParseCSV_BlankName(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,type\nok,pdf\n ,pdf\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestCoerceOrder(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"7", 7},
		{"-2", -2},
		{"4.0", 4},
		{"abc", 0},
		{"NaN", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, coerceOrder(tt.in), "coerceOrder(%q)", tt.in)
	}
}

func TestParseYAML(t *testing.T) {
	list := `
- path: Week 1
  type: video
  name: Intro
  url: https://youtu.be/abc
  order: 1
- type: folder
  name: Extras
`
	rows, err := ParseYAML(strings.NewReader(list))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Intro", rows[0].Name)
	assert.Equal(t, 1, rows[0].Order)

	doc := "rows:\n  - type: pdf\n    name: Notes\n"
	rows, err = ParseYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pdf", rows[0].Type)

	_, err = ParseYAML(strings.NewReader("- type: pdf\n"))
	assert.Error(t, err)
}
