package liststore

// Lookup links a field of one list to items of another. Key is the
// foreign-key field holding the related item id.
type Lookup struct {
	List string
	Key  string
}

// Schema declares the lookups of each list, keyed by list title and then
// by lookup name.
type Schema map[string]map[string]Lookup

// Lookup returns the named lookup of a list.
func (s Schema) Lookup(list, name string) (Lookup, bool) {
	lookups, ok := s[list]
	if !ok {
		return Lookup{}, false
	}
	lookup, ok := lookups[name]
	return lookup, ok
}
