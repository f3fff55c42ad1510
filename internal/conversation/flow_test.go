package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	answer string
	query  string
	topK   int
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, topK int) string {
	s.query, s.topK = query, topK
	return s.answer
}

func TestTurnAddsContext(t *testing.T) {
	r := &stubRetriever{answer: "Reference 1:\nWe open at nine.\n"}
	f := New(r, 0, nil)

	added := f.Turn(context.Background(), "when do you open")
	require.Len(t, added, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "when do you open"}, added[0])
	assert.Equal(t, Message{Role: RoleSystem, Content: "Relevant KB context: \nReference 1:\nWe open at nine.\n"}, added[1])
	assert.Equal(t, "when do you open", r.query)
	assert.Equal(t, DefaultTopK, r.topK)

	h := f.History()
	require.Len(t, h, 3)
	assert.Equal(t, RoleSystem, h[0].Role)
	assert.Equal(t, Instructions, h[0].Content)
}

func TestTurnWithoutContext(t *testing.T) {
	f := New(&stubRetriever{}, 2, nil)
	added := f.Turn(context.Background(), "hi")
	require.Len(t, added, 1)
	assert.Equal(t, RoleUser, added[0].Role)
}

func TestHistoryIsCopy(t *testing.T) {
	f := New(&stubRetriever{answer: "x"}, 1, nil)
	f.Turn(context.Background(), "q")

	h := f.History()
	require.Len(t, h, 3)
	assert.Equal(t, Message{Role: RoleSystem, Content: "Relevant KB context: \nx"}, h[2])

	h[0].Content = "changed"
	assert.Equal(t, Instructions, f.History()[0].Content)
}
