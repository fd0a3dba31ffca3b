package corpus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"scadarag/internal/domain"
)

func docIDs(docs []domain.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func Test_Upsert_AppendsAndReplaces(t *testing.T) {
	s := NewStorage()
	s.Upsert([]domain.Document{{ID: "a", Text: "1"}, {ID: "b", Text: "2"}})
	s.Upsert([]domain.Document{{ID: "c", Text: "3"}, {ID: "a", Text: "1-new"}})

	docs := s.Documents()
	assert.Equal(t, []string{"a", "b", "c"}, docIDs(docs))
	assert.Equal(t, "1-new", docs[0].Text)
	assert.Equal(t, 3, s.Len())
}

func Test_Remove(t *testing.T) {
	s := NewStorage()
	s.Upsert([]domain.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	assert.Equal(t, 2, s.Remove("a", "c", "missing"))
	assert.Equal(t, []string{"b"}, docIDs(s.Documents()))
	assert.Zero(t, s.Remove("a"))

	s.Upsert([]domain.Document{{ID: "d"}, {ID: "b", Text: "again"}})
	docs := s.Documents()
	assert.Equal(t, []string{"b", "d"}, docIDs(docs))
	assert.Equal(t, "again", docs[0].Text)
}

func Test_Clear(t *testing.T) {
	s := NewStorage()
	s.Upsert([]domain.Document{{ID: "a"}})
	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Documents())

	s.Upsert([]domain.Document{{ID: "a"}})
	assert.Equal(t, 1, s.Len())
}

func Test_DocumentsIsACopy(t *testing.T) {
	s := NewStorage()
	s.Upsert([]domain.Document{{ID: "a", Text: "x"}})
	docs := s.Documents()
	docs[0].Text = "mutated"
	assert.Equal(t, "x", s.Documents()[0].Text)
}

func Test_ConcurrentAccess(t *testing.T) {
	s := NewStorage()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Upsert([]domain.Document{{ID: string(rune('a' + i))}})
			_ = s.Documents()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len())
}
