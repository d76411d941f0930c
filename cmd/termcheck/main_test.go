// File: cmd/termcheck/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, 0, exitCode(fmt.Errorf("run aborted: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("target unreachable")))
	assert.Equal(t, 1, exitCode(context.DeadlineExceeded))
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()

	t.Run("writes panic log", func(t *testing.T) {
		var written string
		var code int
		osWriteFile = func(name string, data []byte, perm os.FileMode) error {
			assert.Equal(t, panicLogFile, name)
			written = string(data)
			return nil
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 2, code)
		assert.Contains(t, written, "panic: boom")
		assert.Contains(t, written, "goroutine")
	})

	t.Run("write failure still exits", func(t *testing.T) {
		var code int
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only fs") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 2, code)
	})

	t.Run("no panic is a no-op", func(t *testing.T) {
		osExit = func(int) { require.Fail(t, "exit should not be called") }
		func() {
			defer handlePanic()
		}()
	})
}
