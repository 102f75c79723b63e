package search

import "github.com/hyperjump/palilex/internal/vector"

// Status summarizes the engine for the status endpoint and CLI.
type Status struct {
	Dictionary DictionaryStatus `json:"dictionary"`
	Index      vector.Stats     `json:"index"`
	Embedding  EmbeddingStatus  `json:"embedding"`
}

// DictionaryStatus describes the loaded table.
type DictionaryStatus struct {
	Source     string `json:"source"`
	Entries    int    `json:"entries"`
	Searchable int    `json:"searchable"`
	Defined    int    `json:"defined"`
	Headwords  uint64 `json:"headwords"`
}

// EmbeddingStatus describes the configured embedding identity and whether a client is live.
type EmbeddingStatus struct {
	Identity   string `json:"identity"`
	Connected  bool   `json:"connected"`
	Dimensions int    `json:"dimensions"`
}

// Status reports table size, index lifecycle and embedding client state.
func (e *Engine) Status() Status {
	st := e.state.Load()
	s := Status{
		Dictionary: DictionaryStatus{
			Source:     st.table.Source(),
			Entries:    st.table.Len(),
			Searchable: len(st.table.NativeCandidates()),
			Defined:    len(st.table.WithDefinition()),
		},
		Index:     e.store.Stats(),
		Embedding: EmbeddingStatus{Identity: e.identity.String()},
	}
	if n, err := st.headwords.DocCount(); err == nil {
		s.Dictionary.Headwords = n
	}
	if c := e.clients.Current(); c != nil && c.Identity() == e.identity {
		s.Embedding.Connected = true
		s.Embedding.Dimensions = c.Dimensions()
	}
	return s
}
