// Package ingest turns files into stored, embedded chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voicerag/internal/domain"
	"voicerag/internal/logger"
	"voicerag/internal/vectorstore"
)

// DefaultChunkSize is the window size, in words, used for directory runs.
const DefaultChunkSize = 2000

const (
	MsgNoText   = "No extractable text found in file"
	MsgNoChunks = "No text chunks produced"
)

// Extractor reads a file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Splitter cuts text into word windows of the given size.
type Splitter interface {
	Split(text string, size int) ([]string, error)
}

// Store is the write side of the vector store.
type Store interface {
	Insert(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) vectorstore.InsertOutcome
	Info(ctx context.Context) (domain.CollectionInfo, error)
}

// Result describes one ingested file. Added is 0 unless OK.
type Result struct {
	OK      bool                   `json:"ok"`
	Added   int                    `json:"added"`
	Message string                 `json:"message,omitempty"`
	Info    *domain.CollectionInfo `json:"collection_info,omitempty"`
}

// Ingestor runs extract, chunk and insert for single files and directories.
type Ingestor struct {
	extractor Extractor
	splitter  Splitter
	store     Store
	log       *logrus.Entry
}

func New(extractor Extractor, splitter Splitter, store Store, log *logrus.Entry) *Ingestor {
	return &Ingestor{extractor: extractor, splitter: splitter, store: store, log: logger.OrDiscard(log)}
}

// Ingest extracts, chunks and stores one file.
func (i *Ingestor) Ingest(ctx context.Context, path string, chunkSize int) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
		}
		return Result{}, err
	}

	text, err := i.extractor.Extract(abs)
	if err != nil {
		return Result{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Message: MsgNoText}, nil
	}

	windows, err := i.splitter.Split(text, chunkSize)
	if err != nil {
		return Result{}, err
	}
	if len(windows) == 0 {
		return Result{Message: MsgNoChunks}, nil
	}

	name := filepath.Base(abs)
	ext := strings.ToLower(filepath.Ext(abs))
	base := fmt.Sprintf("%s-%s", strings.TrimSuffix(name, filepath.Ext(name)), uuid.NewString()[:8])
	ids := make([]string, len(windows))
	metadatas := make([]map[string]any, len(windows))
	for n, w := range windows {
		c := domain.Chunk{Text: w, Index: n, Total: len(windows), Source: name, Path: abs, Ext: ext}
		ids[n] = fmt.Sprintf("%s-%d", base, n)
		metadatas[n] = c.Metadata()
	}

	out := i.store.Insert(ctx, windows, metadatas, ids)
	res := Result{OK: out.OK}
	if out.OK {
		res.Added = len(windows)
	}
	if info, err := i.store.Info(ctx); err != nil {
		i.log.WithError(err).Warn("reading collection info failed")
	} else {
		res.Info = &info
	}
	i.log.WithFields(logrus.Fields{
		"file":   name,
		"chunks": len(windows),
		"ok":     out.OK,
	}).Info("file ingested")
	return res, nil
}

// FileResult is the outcome of one file of a directory run.
type FileResult struct {
	Path   string
	Result Result
	Err    error
}

// Summary tallies a directory run. A file fails when Ingest returns an error.
type Summary struct {
	Succeeded int
	Failed    int
	Files     []FileResult
}

// IngestDir ingests every regular file directly inside dir, in name order.
// Per-file errors are recorded and do not stop the run.
func (i *Ingestor) IngestDir(ctx context.Context, dir string, chunkSize int) (Summary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, fmt.Errorf("directory %s: %w", dir, domain.ErrNotFound)
		}
		return Summary{}, err
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("%s is not a directory: %w", dir, domain.ErrInvalidArgument)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		path := filepath.Join(dir, e.Name())
		res, err := i.Ingest(ctx, path, chunkSize)
		sum.Files = append(sum.Files, FileResult{Path: path, Result: res, Err: err})
		if err != nil {
			i.log.WithError(err).WithField("file", e.Name()).Warn("ingest failed")
			sum.Failed++
			continue
		}
		sum.Succeeded++
	}
	i.log.WithFields(logrus.Fields{
		"succeeded": sum.Succeeded,
		"failed":    sum.Failed,
	}).Info("directory ingested")
	return sum, nil
}
