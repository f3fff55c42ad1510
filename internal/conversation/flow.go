// Package conversation prepares each user turn for the external responder:
// the transcript is recorded and knowledge-base context is attached.
package conversation

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"voicerag/internal/logger"
)

// DefaultTopK is the number of passages retrieved per turn.
const DefaultTopK = 4

const (
	Greeting = "Hello! I'm your RAG-enabled voice assistant. I can answer questions using my knowledge base " +
		"or provide general assistance. How can I help you today?"
	Farewell = "Thank you for using the RAG voice assistant. Goodbye!"

	contextPrefix = "Relevant KB context: \n"
)

// Instructions is the system prompt handed to the responder.
const Instructions = `You are a retrieval-augmented assistant designed to answer user questions using relevant document data. Your response will be spoken aloud using a Text-to-Speech system, so it must sound natural, clear, and easy to understand.

You will receive two inputs. First, the user's question. Second, a set of documents that may contain relevant information. If the documents contain useful content, use it to answer the question in a grounded and conversational way. If the documents are empty or unrelated to the question, answer the question using your own knowledge instead.

Always make it clear whether your answer is based on the documents or generated from your own understanding. Speak in a warm and helpful tone. Use short, flowing sentences that sound good when spoken. Avoid technical jargon unless necessary, and explain things simply. Do not include lists, tables, or anything that would be awkward to read aloud.

Your goal is to deliver a single, spoken-style answer that feels human and informative. End by briefly stating the source of your answer, either based on retrieved documents or generated from your own knowledge.`

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Retriever returns formatted knowledge-base context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) string
}

// Flow keeps the chat history of one session.
type Flow struct {
	mu        sync.Mutex
	retriever Retriever
	topK      int
	history   []Message
	log       *logrus.Entry
}

// New starts a session whose history opens with the system instructions.
func New(retriever Retriever, topK int, log *logrus.Entry) *Flow {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Flow{
		retriever: retriever,
		topK:      topK,
		history:   []Message{{Role: RoleSystem, Content: Instructions}},
		log:       logger.OrDiscard(log),
	}
}

// Turn records transcript as a user message, looks up context and records it
// as a system message when there is any. It returns the messages added.
func (f *Flow) Turn(ctx context.Context, transcript string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := []Message{{Role: RoleUser, Content: transcript}}
	if kb := f.retriever.Retrieve(ctx, transcript, f.topK); kb != "" {
		added = append(added, Message{Role: RoleSystem, Content: contextPrefix + kb})
	}
	f.history = append(f.history, added...)
	f.log.WithField("messages", len(f.history)).Debug("turn prepared")
	return added
}

// History returns a copy of the session history.
func (f *Flow) History() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.history))
	copy(out, f.history)
	return out
}
