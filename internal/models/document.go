// Package models defines core data structures for dictionary entries, queries, and search results.
package models

// DictionaryEntry is one headword's record. RomanSpelling is the stable identity;
// NativeSpelling and Definition are optional.
type DictionaryEntry struct {
	RomanSpelling  string `json:"roman_spelling"`
	NativeSpelling string `json:"native_spelling"`
	Definition     string `json:"definition"`
}

// HasNativeSpelling reports whether the entry can take part in lexical search.
func (e DictionaryEntry) HasNativeSpelling() bool {
	return e.NativeSpelling != ""
}

// HasDefinition reports whether the entry can be embedded into the vector index.
func (e DictionaryEntry) HasDefinition() bool {
	return e.Definition != ""
}
