package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	insertLine = `{"type":"INSERT","database":"shop","table":"orders","ts":1,"data":{"id":1}}`
	deleteLine = `{"type":"DELETE","database":"shop","table":"orders","ts":2,"data":{"id":1}}`
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate_Stdin(t *testing.T) {
	in := strings.Join([]string{insertLine, "not json", deleteLine}, "\n")

	out, errOut, err := execute(t, in, "validate")
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
	require.Contains(t, errOut, "line 2: invalid change event")
	require.Contains(t, errOut, "2 valid / 1 invalid")
}

func TestValidate_UnknownFormat(t *testing.T) {
	_, _, err := execute(t, "", "validate", "--format", "xml")
	require.Error(t, err)
}

func TestValidate_StdinRejectsJSONFormat(t *testing.T) {
	_, _, err := execute(t, "", "validate", "--format", "json")
	require.Error(t, err)
}

func TestValidate_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(insertLine), 0o600))

	out, errOut, err := execute(t, "", "validate", "--in", path)
	require.NoError(t, err)
	require.Contains(t, out, `"INSERT"`)
	require.Contains(t, errOut, "1 valid / 0 invalid")
}

func TestValidate_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"UPSERT"}`), 0o600))

	_, _, err := execute(t, "", "validate", "--in", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "0 valid / 1 invalid")
}

func TestEnsureTopic_DryRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topics:\n  b:\n    partitions: 2\n  a: {}\n"), 0o600))

	out, _, err := execute(t, "", "ensure-topic", "--file", path, "--dry-run", "--partitions", "4")
	require.NoError(t, err)
	require.Equal(t, "a partitions=4 replication=1\nb partitions=2 replication=1\n", out)
}

func TestEnsureTopic_NoBrokers(t *testing.T) {
	_, _, err := execute(t, "", "ensure-topic", "--topic", "t", "--brokers", "")
	require.Error(t, err)
}
