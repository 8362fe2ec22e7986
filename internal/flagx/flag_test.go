package flagx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	args := []string{"-d", "vault.db", "-x", "nope", "-r", "http://localhost:5000"}
	got := FilterArgs(args, []string{"-d", "-r"})
	require.Equal(t, []string{"-d", "vault.db", "-r", "http://localhost:5000"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	args := []string{"--config=conf.json", "--other=skip"}
	got := FilterArgs(args, []string{"--config"})
	require.Equal(t, []string{"--config=conf.json"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	args := []string{"-v", "-d", "vault.db"}
	got := FilterArgs(args, []string{"-v"})
	require.Equal(t, []string{"-v"}, got)
}

func TestFilterArgs_Empty(t *testing.T) {
	got := FilterArgs(nil, []string{"-d"})
	require.NotNil(t, got)
	require.Empty(t, got)
}
