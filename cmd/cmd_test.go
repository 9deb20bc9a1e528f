package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apireplay/internal/model"
)

func TestParsePairs(t *testing.T) {
	rows := parsePairs([]string{"page=2", " q = a=b ", "flag", "=orphan"}, "=")
	assert.Equal(t, []model.KeyValue{
		{Key: "page", Value: "2", Enabled: true},
		{Key: "q", Value: "a=b", Enabled: true},
		{Key: "flag", Value: "", Enabled: true},
	}, rows)

	hdrs := parsePairs([]string{"Authorization: Bearer x:y"}, ":")
	assert.Equal(t, "Bearer x:y", hdrs[0].Value)
}

func TestSetRowKeepsTrailingBlank(t *testing.T) {
	rows := []model.KeyValue{{Enabled: true}}
	setRow(&rows, "page", "1", true)
	setRow(&rows, "size", "10", false)
	setRow(&rows, "page", "2", true)

	assert.Equal(t, []model.KeyValue{
		{Key: "page", Value: "2", Enabled: true},
		{Key: "size", Value: "10", Enabled: false},
		{Enabled: true},
	}, rows)

	assert.True(t, toggleRow(&rows, "size"))
	assert.True(t, rows[1].Enabled)
	assert.True(t, removeRow(&rows, "page"))
	assert.False(t, removeRow(&rows, "page"))
	assert.Len(t, rows, 2)
}

func TestVariables(t *testing.T) {
	vars := setVariable(nil, "host", "a")
	vars = setVariable(vars, "host", "b")
	vars = setVariable(vars, "id", "1")
	assert.Equal(t, []model.Variable{{Key: "host", Value: "b"}, {Key: "id", Value: "1"}}, vars)
	assert.Equal(t, []model.Variable{{Key: "id", Value: "1"}}, removeVariable(vars, "host"))
}

func TestReadBodyFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.json"), []byte(`{"a":1}`), 0o600))
	body, err := readArgument("@body.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, body)

	literal, err := readArgument(`{"inline":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"inline":true}`, literal)

	_, err = readBodyFromFile("../outside.json")
	assert.ErrorContains(t, err, "access denied")
}

func TestWithoutBlankRows(t *testing.T) {
	rows := withoutBlankRows([]model.KeyValue{{Enabled: true}, {Key: "a", Enabled: true}, {Value: "v"}})
	assert.Equal(t, []model.KeyValue{{Key: "a", Enabled: true}, {Value: "v"}}, rows)
}
