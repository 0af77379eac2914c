package remoteapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sapling-scm/filestore/core"
)

func TestReferenceForKeyIsStableAndTagLegal(t *testing.T) {
	k := core.Key{Path: "dir/file.txt", Hgid: core.HgId{1, 2, 3}}
	a := referenceForKey(k)
	b := referenceForKey(k)
	assert.Equal(t, a, b)
	assert.Regexp(t, `^file-[0-9a-f]{64}$`, a)
}

func TestReferenceForKeyDistinguishesPaths(t *testing.T) {
	k1 := core.Key{Path: "a", Hgid: core.HgId{1}}
	k2 := core.Key{Path: "b", Hgid: core.HgId{1}}
	assert.NotEqual(t, referenceForKey(k1), referenceForKey(k2))
}
