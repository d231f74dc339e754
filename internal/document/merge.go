package document

// Merge recursively merges override onto base and returns a new document.
// Map values merge key by key; any other conflict resolves in favor of the
// override. The merge is not commutative: base structure is preserved and
// only overridden leaves change.
func Merge(base, override Document) Document {
	result := make(Document, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if existing, ok := result[k].(Document); ok {
			if ov, ok := v.(Document); ok {
				result[k] = Merge(existing, ov)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// DeepMerge merges override onto base with list handling: two lists are
// concatenated and scalar elements deduplicated in first-seen order.
// Non-scalar list elements (maps, nested lists) are never deduplicated.
// A scalar override always replaces the base value.
func DeepMerge(base, override any) any {
	baseMap, baseOK := base.(Document)
	overrideMap, overrideOK := override.(Document)
	if !baseOK || !overrideOK {
		return override
	}

	result := make(Document, len(baseMap)+len(overrideMap))
	for k, v := range baseMap {
		result[k] = v
	}
	for k, v := range overrideMap {
		existing, present := result[k]
		if !present {
			result[k] = v
			continue
		}
		switch ev := existing.(type) {
		case Document:
			if ov, ok := v.(Document); ok {
				result[k] = DeepMerge(ev, ov)
				continue
			}
		case []any:
			if ov, ok := v.([]any); ok {
				result[k] = mergeLists(ev, ov)
				continue
			}
		}
		result[k] = v
	}
	return result
}

func mergeLists(base, override []any) []any {
	combined := make([]any, 0, len(base)+len(override))
	combined = append(combined, base...)
	combined = append(combined, override...)

	seen := make(map[any]bool)
	result := make([]any, 0, len(combined))
	for _, item := range combined {
		if isScalar(item) {
			if seen[item] {
				continue
			}
			seen[item] = true
		}
		result = append(result, item)
	}
	return result
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}
