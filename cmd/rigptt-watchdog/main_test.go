package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 0, run([]string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "--watchdog-timeout")
	assert.NotContains(t, stderr.String(), "--listen")
}

func TestRun_ServerOnlyFlag(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 2, run([]string{"--listen", "127.0.0.1:4532"}, &stderr))
}

func TestRun_ExclusiveLine(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 1, run([]string{"-m", "serial", "--serial-device", "/dev/ttyUSB0"}, &stderr))
	assert.Contains(t, stderr.String(), "enable the watchdog in the server instead")
}
