package quotes

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/resilience"
)

// Source produces the quotes of a corpus.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Quote, error)
}

// corpusFile is the object form of a corpus file. A bare list of quotes is
// accepted too.
type corpusFile struct {
	Quotes []Quote `json:"quotes" yaml:"quotes"`
}

// FileSource reads quotes from a YAML (.yaml, .yml) or JSON file.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string {
	return "file:" + f.Path
}

func (f FileSource) Load(ctx context.Context) ([]Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, resilience.Permanent(fmt.Errorf("%w: %w", apperrors.ErrCorpusSource, err))
		}
		return nil, fmt.Errorf("%w: reading %s: %w", apperrors.ErrCorpusSource, f.Path, err)
	}
	quotes, err := Decode(data, filepath.Ext(f.Path))
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("parsing corpus file %s: %w", f.Path, err))
	}
	return quotes, nil
}

// Decode parses a corpus document. ext selects YAML (".yaml", ".yml") or
// JSON (anything else).
func Decode(data []byte, ext string) ([]Quote, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var list []Quote
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var doc corpusFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
		return doc.Quotes, nil
	default:
		trimmed := bytes.TrimSpace(data)
		if bytes.HasPrefix(trimmed, []byte("[")) {
			var list []Quote
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("decoding json: %w", err)
			}
			return list, nil
		}
		var doc corpusFile
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
		return doc.Quotes, nil
	}
}

// ReadTxRunner runs fn in a read-only transaction. *postgres.Client
// implements it.
type ReadTxRunner interface {
	InReadTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// PostgresSource reads quotes with a single SELECT. The query must return
// id, text, author, source and tags (text[]) in that order; author and
// source may be NULL.
type PostgresSource struct {
	DB    ReadTxRunner
	Query string
}

func (p PostgresSource) Name() string {
	return "postgres"
}

func (p PostgresSource) Load(ctx context.Context) ([]Quote, error) {
	var quotes []Quote
	err := p.DB.InReadTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, p.Query)
		if err != nil {
			return fmt.Errorf("querying quotes: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				q      Quote
				author sql.NullString
				source sql.NullString
			)
			if err := rows.Scan(&q.ID, &q.Text, &author, &source, pq.Array(&q.Tags)); err != nil {
				return fmt.Errorf("scanning quote row: %w", err)
			}
			q.Author = author.String
			q.Source = source.String
			quotes = append(quotes, q)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrCorpusSource, err)
	}
	return quotes, nil
}
