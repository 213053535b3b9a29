package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 0, run([]string{"--help"}, &stderr))
	assert.Contains(t, stderr.String(), "--watchdog-timeout")
	assert.Contains(t, stderr.String(), "--listen")
}

func TestRun_BadFlag(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 2, run([]string{"--no-such-flag"}, &stderr))
}

func TestRun_BadLogLevel(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 2, run([]string{"-d", "chatty"}, &stderr))
}

func TestRun_InvalidConfig(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 1, run([]string{"--ack", "sometimes"}, &stderr))
	assert.Contains(t, stderr.String(), "invalid configuration")
}

func TestRun_Version(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 0, run([]string{"--version"}, &stderr))
	assert.Contains(t, stderr.String(), "rigptt - Version")
}
