package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCtl(t *testing.T, db string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"-db", db}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestCartctlPersistsBetweenRuns(t *testing.T) {
	t.Setenv("CART_CONFIG_PATH", "")
	db := filepath.Join(t.TempDir(), "cart.db")

	_, _, err := runCtl(t, db, "add", "-title", "Shoe", "-image", "u", "-price", "10", "a")
	require.NoError(t, err)
	_, _, err = runCtl(t, db, "add", "-title", "Hat", "-price", "4.5", "b")
	require.NoError(t, err)
	_, _, err = runCtl(t, db, "inc", "a")
	require.NoError(t, err)

	out, _, err := runCtl(t, db, "show")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "TITLE")
	assert.Equal(t, []string{"a", "Shoe", "10.00", "2"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"b", "Hat", "4.50", "1"}, strings.Fields(lines[2]))
	assert.Equal(t, "3", strings.TrimSpace(lines[3]))

	_, stderr, err := runCtl(t, db, "dec", "missing")
	require.NoError(t, err)
	assert.Contains(t, stderr, `no item "missing"`)

	out, _, err = runCtl(t, db, "clear")
	require.NoError(t, err)
	assert.Equal(t, "cart is empty\n", out)
}

func TestCartctlUsageErrors(t *testing.T) {
	t.Setenv("CART_CONFIG_PATH", "")
	db := filepath.Join(t.TempDir(), "cart.db")

	for _, args := range [][]string{
		{"frobnicate"},
		{"inc"},
		{"add"},
		{"dec", "a", "b"},
		{"add", "-price", "NaN", "x"},
		{"add", "-price", "+Inf", "x"},
		{"add", "-price", "0", "x"},
		{"add", "x"},
		{"add", "-price", "3", ""},
	} {
		_, _, err := runCtl(t, db, args...)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}

	out, _, err := runCtl(t, db, "show")
	require.NoError(t, err)
	assert.Equal(t, "cart is empty\n", out, "rejected adds leave nothing behind")

	var stdout, stderr bytes.Buffer
	err = run(context.Background(), nil, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), "usage: cartctl")
}
