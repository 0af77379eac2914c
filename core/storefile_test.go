package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreFileMergeIdempotentAndIdentity(t *testing.T) {
	sf := storeFileWithContent(NewIlogLazyFile(LogEntry{Content: []byte("hello")}))

	assert.Equal(t, sf, sf.Merge(sf))
	assert.Equal(t, sf, sf.Merge(StoreFile{}))
}

func TestStoreFileMergeNewWinsOverOld(t *testing.T) {
	oldLF := NewIlogLazyFile(LogEntry{Content: []byte("old")})
	newLF := NewIlogLazyFile(LogEntry{Content: []byte("new")})

	older := storeFileWithContent(oldLF)
	newer := storeFileWithContent(newLF)

	merged := newer.Merge(older)
	content, ok := merged.ContentFile()
	assert.True(t, ok)
	bytes, err := content.FileContent()
	assert.NoError(t, err)
	assert.Equal(t, []byte("new"), bytes)
}

func TestStoreFileMaskDropsUnrequestedFields(t *testing.T) {
	sf := storeFileWithContent(NewIlogLazyFile(LogEntry{Content: []byte("x")})).
		Merge(storeFileWithAuxData(FileAuxData{}))

	masked := sf.Mask(AttrContent)
	_, hasAux := masked.AuxData()
	assert.False(t, hasAux)
	_, hasContent := masked.ContentFile()
	assert.True(t, hasContent)
}

func TestStoreFileAttrs(t *testing.T) {
	assert.Equal(t, AttrNone, StoreFile{}.Attrs())
	assert.Equal(t, AttrContent, storeFileWithContent(LazyFile{}).Attrs())
	assert.Equal(t, AttrAuxData, storeFileWithAuxData(FileAuxData{}).Attrs())
}
