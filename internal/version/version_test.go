package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	prev := []string{Version, GitSHA, BuildTime}
	defer func() { Version, GitSHA, BuildTime = prev[0], prev[1], prev[2] }()

	assert.Equal(t, "teletrack version dev (unknown, built unknown)", String("teletrack"))

	Version, GitSHA, BuildTime = "0.3.1", "abc123", "2026-01-02"
	assert.Equal(t, "teletrack version 0.3.1 (abc123, built 2026-01-02)", String("teletrack"))
}
