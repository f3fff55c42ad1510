package chunker

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"voicerag/internal/domain"
	"voicerag/internal/logger"
)

// DefaultOverlap is the number of words shared by consecutive windows
// when the caller does not pick one.
const DefaultOverlap = 100

// Split cuts text into windows of at most size whitespace-separated words,
// consecutive windows sharing overlap words. Words are re-joined by single
// spaces. An overlap outside [0, size) is coerced to 0; use SplitLogged to
// have the coercion reported.
func Split(text string, size, overlap int) ([]string, error) {
	chunks, _, err := split(text, size, overlap)
	return chunks, err
}

func split(text string, size, overlap int) ([]string, bool, error) {
	if size <= 0 {
		return nil, false, fmt.Errorf("chunk size must be positive, got %d: %w", size, domain.ErrInvalidArgument)
	}
	coerced := false
	if overlap < 0 || overlap >= size {
		overlap = 0
		coerced = true
	}
	words := strings.Fields(text)
	n := len(words)
	var chunks []string
	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}
		if end > start {
			chunks = append(chunks, strings.Join(words[start:end], " "))
		}
		if end == n {
			break
		}
		start = end - overlap
	}
	return chunks, coerced, nil
}

// Chunker splits extracted text with a fixed overlap and reports coercions.
type Chunker struct {
	overlap int
	log     *logrus.Entry
}

// New creates a Chunker. A nil log discards warnings.
func New(overlap int, log *logrus.Entry) *Chunker {
	return &Chunker{overlap: overlap, log: logger.OrDiscard(log)}
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split cuts text into windows of size words using the configured overlap.
func (c *Chunker) Split(text string, size int) ([]string, error) {
	return SplitLogged(text, size, c.overlap, c.log)
}

// SplitLogged behaves like Split and logs a warning when the overlap was coerced.
func SplitLogged(text string, size, overlap int, log *logrus.Entry) ([]string, error) {
	chunks, coerced, err := split(text, size, overlap)
	if err != nil {
		return nil, err
	}
	if coerced {
		logger.OrDiscard(log).WithFields(logrus.Fields{
			"chunk_size": size,
			"overlap":    overlap,
		}).Warn("overlap out of range, using 0")
	}
	return chunks, nil
}
