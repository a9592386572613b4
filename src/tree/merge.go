package tree

// Merge folds src into dst in place. For every key of src: when both sides
// hold mappings they are merged recursively; otherwise dst takes a copy of
// the src value, so scalars overwrite and sequences are replaced wholesale.
// dst must not be nil.
func Merge(dst, src *Map) {
	for _, k := range src.Keys() {
		sv, _ := src.Get(k)
		if sm, ok := sv.AsMap(); ok {
			if dv, ok := dst.Get(k); ok {
				if dm, ok := dv.AsMap(); ok {
					Merge(dm, sm)
					continue
				}
			}
		}
		dst.Set(k, sv.Clone())
	}
}
