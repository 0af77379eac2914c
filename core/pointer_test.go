package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointerOriginCacheOverwritesLocal(t *testing.T) {
	p := newPointerOrigin()
	sha := Sha256{1}

	p.found(sha, ScopeLocal)
	scope, ok := p.lookup(sha)
	assert.True(t, ok)
	assert.Equal(t, ScopeLocal, scope)

	p.found(sha, ScopeCache)
	scope, ok = p.lookup(sha)
	assert.True(t, ok)
	assert.Equal(t, ScopeCache, scope)
}

func TestPointerOriginCacheCannotRegressToLocal(t *testing.T) {
	p := newPointerOrigin()
	sha := Sha256{2}

	p.found(sha, ScopeCache)
	p.found(sha, ScopeLocal)

	scope, ok := p.lookup(sha)
	assert.True(t, ok)
	assert.Equal(t, ScopeCache, scope)
}

func TestPointerOriginLocalOnlyWrittenWhenAbsent(t *testing.T) {
	p := newPointerOrigin()
	sha := Sha256{3}

	p.found(sha, ScopeLocal)
	p.found(sha, ScopeLocal)

	scope, ok := p.lookup(sha)
	assert.True(t, ok)
	assert.Equal(t, ScopeLocal, scope)
}

func TestParseLfsPointerText(t *testing.T) {
	raw := []byte("sha256 " + Sha256{0xab, 0xcd}.String() + "\nsize 100\n")
	entry, ok := parseLfsPointerText(raw)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), entry.Size)
	assert.Equal(t, Sha256{0xab, 0xcd}, entry.Sha256)
}

func TestParseLfsPointerTextRejectsIncomplete(t *testing.T) {
	_, ok := parseLfsPointerText([]byte("sha256 aa\n"))
	assert.False(t, ok)
}
