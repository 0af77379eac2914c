package core

// deriveComputable is the derivation pass: for each found record, compute
// any attribute that is both missing and in the with_computable closure of
// what's already present. Currently that's only aux_data derived from
// content. Re-checks completion per key as it goes (via foundAttributes).
func (fs *FetchState) deriveComputable() {
	if !fs.computeAuxData {
		return
	}
	for k, v := range fs.found {
		missing := fs.requestAttrs.Difference(v.Attrs())
		actionable := v.Attrs().WithComputable().Intersect(missing)
		if !actionable.Intersect(AttrAuxData).Any() {
			continue
		}
		content, ok := v.ContentFile()
		if !ok {
			continue
		}
		aux, err := content.ComputeAuxData()
		if err != nil {
			fs.addKeyedError(k, err)
			continue
		}
		origin := fs.keyOrigin.get(k)
		fs.computedAuxData[k] = origin
		fs.foundAttributes(k, storeFileWithAuxData(aux), origin)
	}
}
