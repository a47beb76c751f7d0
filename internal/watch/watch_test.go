package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goFiles(path string) bool { return strings.HasSuffix(path, ".go") }

func TestNewWatchesDirectoryTree(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	w, err := New([]string{dir}, goFiles)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.NoError(t, w.Stop())
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "missing")}, goFiles)
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWatchFiresDebouncedCallbackOnWrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := New([]string{dir}, goFiles, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var got ChangeSet
	fired := make(chan struct{}, 1)
	w.Start(context.Background(), func(cs ChangeSet) {
		mu.Lock()
		got = cs
		mu.Unlock()
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got.Changed, 1)
	assert.Equal(t, target, got.Changed[0])
	assert.Empty(t, got.Deleted)
}

func TestWatchCollapsesBurstsIntoOneCallback(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := New([]string{dir}, goFiles, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	var callCount int
	var mu sync.Mutex
	fired := make(chan struct{}, 10)
	w.Start(context.Background(), func(cs ChangeSet) {
		mu.Lock()
		callCount++
		mu.Unlock()
		fired <- struct{}{}
	})

	target := filepath.Join(dir, "burst.go")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("package main\n\nvar x = "+string(rune('0'+i))+"\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount, "rapid writes to one file should collapse into a single callback")
}

func TestWatchSkipsRewriteWithIdenticalContent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "same.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, err := New([]string{dir}, goFiles, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	// Seed the content hash as if this file had already been observed.
	hash, err := hashFile(target)
	require.NoError(t, err)
	w.contentHash[target] = hash

	var callCount int
	var mu sync.Mutex
	w.Start(context.Background(), func(cs ChangeSet) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, callCount, "rewriting identical content must not trigger a callback")
}

func TestWatchReportsDeletion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	w, err := New([]string{dir}, goFiles, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var got ChangeSet
	fired := make(chan struct{}, 1)
	w.Start(context.Background(), func(cs ChangeSet) {
		mu.Lock()
		got = cs
		mu.Unlock()
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	require.NoError(t, os.Remove(target))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got.Deleted, 1)
	assert.Equal(t, target, got.Deleted[0])
	assert.Empty(t, got.Changed)
}
