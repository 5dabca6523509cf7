package liststore

// Project shapes a stored item for a caller. base holds the item's own
// fields (including system fields) and related holds the expanded lookups
// by name; a nil related entry means the foreign key was empty.
func Project(base Item, related map[string]Item, sel []string) Item {
	out := Item{}
	if len(sel) == 0 {
		for key, value := range base {
			out[key] = value
		}
		for name, item := range related {
			if item != nil {
				out[name] = copyItem(item)
			}
		}
		return out
	}

	for _, path := range sel {
		lookup, field := SplitPath(path)
		if lookup == "" {
			if value, ok := base[field]; ok {
				out[field] = value
			}
			continue
		}
		item, ok := related[lookup]
		if !ok || item == nil {
			continue
		}
		nested, _ := out[lookup].(Item)
		if nested == nil {
			nested = Item{}
			out[lookup] = nested
		}
		if value, ok := item[field]; ok {
			nested[field] = value
		}
	}
	return out
}

func copyItem(item Item) Item {
	out := make(Item, len(item))
	for key, value := range item {
		out[key] = value
	}
	return out
}
