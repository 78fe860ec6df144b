package flock

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/appministry/stevedore/pkg/utilstest"
)

func TestLockContention(t *testing.T) {
	tempDir, err := ioutil.TempDir("", "flock-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	defer os.RemoveAll(tempDir)

	lockPath := filepath.Join(tempDir, ".lock")

	holder := New(lockPath)
	if err := holder.Acquire(); err != nil {
		t.Fatal("Expected lock to be acquired, got error", err)
	}

	contender := New(lockPath)
	if err := contender.TryAcquire(); err != ErrLocked {
		t.Fatal("Expected ErrLocked while the lock is held, got", err)
	}

	go func() {
		<-time.After(time.Millisecond * 200)
		holder.Release()
	}()

	utilstest.MustEventuallyWithDefaults(t, func() error {
		return contender.TryAcquire()
	})
	contender.Release()
}

func TestAcquireWithTimeout(t *testing.T) {
	tempDir, err := ioutil.TempDir("", "flock-test")
	if err != nil {
		t.Fatal("Expected temp directory, got error", err)
	}
	defer os.RemoveAll(tempDir)

	lockPath := filepath.Join(tempDir, ".lock")

	holder := New(lockPath)
	if err := holder.Acquire(); err != nil {
		t.Fatal("Expected lock to be acquired, got error", err)
	}

	contender := New(lockPath)
	if err := contender.AcquireWithTimeout(time.Millisecond * 100); err != ErrTimeout {
		t.Fatal("Expected ErrTimeout while the lock is held, got", err)
	}

	holder.Release()

	if err := contender.AcquireWithTimeout(time.Second); err != nil {
		t.Fatal("Expected lock to be acquired after release, got error", err)
	}
	contender.Release()
}
