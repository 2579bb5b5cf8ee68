//go:build cgo

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-annotate/pkg/model"
)

const cSource = `#include <string.h>

static int helper(int x)
{
	return x * 2;
}

int foo(const char *s)
{
	int n = strlen(s);
	return helper(n);
}
`

const goSource = `package main

func main() {
	run()
}

func (s *server) run() {
	go func() {
		s.loop()
	}()
}
`

func TestResolver_Functions(t *testing.T) {
	r := NewResolver()

	fns, err := r.Functions(context.Background(), "a.c", []byte(cSource), LangC)
	require.NoError(t, err)
	require.Len(t, fns, 2)

	assert.Equal(t, "helper", fns[0].Name)
	assert.Equal(t, model.NewRegion("a.c", 3, 6), fns[0].Region)
	assert.Equal(t, "foo", fns[1].Name)
	assert.Equal(t, model.NewRegion("a.c", 8, 12), fns[1].Region)
}

func TestResolver_FunctionIn(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	fn, ok, err := r.FunctionIn(ctx, "a.c", []byte(cSource), LangC, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "foo", fn.Name)

	_, ok, err = r.FunctionIn(ctx, "a.c", []byte(cSource), LangC, 1)
	require.NoError(t, err)
	assert.False(t, ok, "include line is outside every function")

	// The closure inside run belongs to run.
	fn, ok, err = r.FunctionIn(ctx, "m.go", []byte(goSource), LangGo, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run", fn.Name)
	assert.Equal(t, model.NewRegion("m.go", 7, 11), fn.Region)
}

func TestResolver_EnclosingFunction(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(file, []byte(cSource), 0644))

	r := NewResolver()
	region, ok, err := r.EnclosingFunction(context.Background(), Cursor{File: file, Line: 5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.NewRegion(file, 3, 6), region)
	assert.True(t, Available())
}

func TestResolver_UnsupportedLanguage(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("text"), 0644))

	_, ok, err := NewResolver().EnclosingFunction(context.Background(), Cursor{File: file, Line: 1})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_MissingFile(t *testing.T) {
	_, ok, err := NewResolver().EnclosingFunction(context.Background(), Cursor{File: "/nonexistent/a.c", Line: 1})
	assert.Error(t, err)
	assert.False(t, ok)
}
