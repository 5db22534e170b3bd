package termcaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCapability(t *testing.T) {
	for _, token := range []string{"ansi", "ANSI", " Ansi "} {
		c, ok := ParseCapability(token)
		assert.True(t, ok, token)
		assert.Equal(t, CapAnsi, c)
	}

	_, ok := ParseCapability("hyperdrive")
	assert.False(t, ok)
}

func TestParseCapabilities(t *testing.T) {
	caps := ParseCapabilities("ansi,Resize-Reporting,unknown,vt-input")
	assert.True(t, caps.Has(CapAnsi))
	assert.True(t, caps.Has(CapResizeReporting))
	assert.True(t, caps.Has(CapVTInput))
	assert.False(t, caps.Has(CapIdentityReporting))
}

func TestCapabilityString(t *testing.T) {
	caps := CapAnsi | CapIdentityReporting
	assert.Equal(t, "ansi,identity-reporting", caps.String())
	assert.Equal(t, "", Capability(0).String())
}
