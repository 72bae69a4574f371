package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("clusters=%d", 3)
	assert.Equal(t, []string{"clusters=3"}, got)

	// nil installs a no-op; the previous logger must not be called again.
	SetLogger(nil)
	Logf("dropped")
	assert.Len(t, got, 1)
}

func TestWarnf_Prefix(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Warnf("candidate pool exhausted: %d clusters dropped", 2)
	assert.Equal(t, "WARN: candidate pool exhausted: 2 clusters dropped", got)
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}
