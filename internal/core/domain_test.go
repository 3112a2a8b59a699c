package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDomain(t *testing.T) {
	assert.Equal(t, DomainSecurity, ParseDomain("  Security "))
	assert.Equal(t, ReviewDomain("tribal-knowledge"), ParseDomain("Tribal-Knowledge"))
}

func TestIsKnownDomain(t *testing.T) {
	for _, d := range KnownDomains {
		assert.True(t, IsKnownDomain(d), string(d))
	}
	assert.False(t, IsKnownDomain(ParseDomain("tribal-knowledge")))
	assert.False(t, IsKnownDomain(""))
}
