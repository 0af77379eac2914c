package core

import "crypto/sha256"

// FileAuxData is derived metadata for a file's content, currently just its
// SHA-256. It is kept as its own type (rather than inlined into StoreFile)
// because it is independently serializable to the aux-data logs.
type FileAuxData struct {
	ContentSha256 Sha256
}

func computeAuxData(content []byte) FileAuxData {
	return FileAuxData{ContentSha256: Sha256(sha256.Sum256(content))}
}

// StoreFile holds up to one content value and up to one aux-data value for
// a single key, as discovered so far during a fetch.
type StoreFile struct {
	content *LazyFile
	auxData *FileAuxData
}

// ContentFile returns the content value, if present.
func (sf StoreFile) ContentFile() (LazyFile, bool) {
	if sf.content == nil {
		return LazyFile{}, false
	}
	return *sf.content, true
}

// AuxData returns the aux-data value, if present.
func (sf StoreFile) AuxData() (FileAuxData, bool) {
	if sf.auxData == nil {
		return FileAuxData{}, false
	}
	return *sf.auxData, true
}

// Attrs returns the attribute set of the fields currently present.
func (sf StoreFile) Attrs() FileAttributes {
	a := AttrNone
	if sf.content != nil {
		a = a.Union(AttrContent)
	}
	if sf.auxData != nil {
		a = a.Union(AttrAuxData)
	}
	return a
}

// Mask zeroes any field outside the given attribute set.
func (sf StoreFile) Mask(attrs FileAttributes) StoreFile {
	out := sf
	if !attrs.Intersect(AttrContent).Any() {
		out.content = nil
	}
	if !attrs.Intersect(AttrAuxData).Any() {
		out.auxData = nil
	}
	return out
}

// Merge combines two StoreFiles, with the receiver's present fields taking
// priority over other's (new bits win over old). Merge is idempotent and
// commutative on disjoint attribute sets: sf.Merge(sf) == sf, and
// sf.Merge(StoreFile{}) == sf.
func (sf StoreFile) Merge(other StoreFile) StoreFile {
	out := sf
	if out.content == nil {
		out.content = other.content
	}
	if out.auxData == nil {
		out.auxData = other.auxData
	}
	return out
}

func storeFileWithContent(lf LazyFile) StoreFile {
	return StoreFile{content: &lf}
}

func storeFileWithAuxData(a FileAuxData) StoreFile {
	return StoreFile{auxData: &a}
}
