package lexical

import (
	"fmt"
	"testing"

	"github.com/hyperjump/palilex/internal/dictionary"
	"github.com/hyperjump/palilex/internal/models"
)

func BenchmarkWRatio(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = WRatio("ธัมมะ", "ธมฺมจกฺกปฺปวตฺตน")
	}
}

func BenchmarkMatcher_Search(b *testing.B) {
	syllables := []string{"ธรรม", "เมต", "ตา", "สติ", "พุท", "ธะ", "กรุ", "ณา"}
	entries := make([]models.DictionaryEntry, 5000)
	for i := range entries {
		entries[i] = models.DictionaryEntry{
			RomanSpelling:  fmt.Sprintf("word%d", i),
			NativeSpelling: syllables[i%len(syllables)] + syllables[(i/len(syllables))%len(syllables)],
		}
	}
	m := NewMatcher(dictionary.NewTable("bench", entries))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Search("เมตตา", 5, 0)
	}
}
