package lumen

// MergeParams deep-merges maps left to right into a fresh map. Nested
// map[string]any values merge recursively; every other value (slices
// included) is replaced by the later layer. Inputs are never mutated.
func MergeParams(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := asMap(v)
		if srcIsMap {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
			fresh := make(map[string]any, len(srcMap))
			mergeInto(fresh, srcMap)
			dst[k] = fresh
			continue
		}
		dst[k] = cloneValue(v)
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return MergeParams(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// boolParam reads a boolean flag from a merged param map.
func boolParam(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
