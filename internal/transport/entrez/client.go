// Package entrez retrieves reference records with the NCBI efetch utility.
package entrez

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shenwei356/bio/seqio/fastx"
	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain/record"
	"github.com/villabioinfo/BLASTr/internal/transport/conda"
)

// Defaults.
const (
	DefaultEnvName   = "entrez-env"
	DefaultDatabase  = "nuccore"
	DefaultChunkSize = 200
	fetchTool        = "efetch"
)

// EnvRunner runs a tool inside a named environment.
type EnvRunner interface {
	Run(ctx context.Context, inv conda.Invocation) error
}

// Config holds the fetch client settings.
type Config struct {
	Runner EnvRunner
	// EnvName is the environment efetch is installed in.
	EnvName string
	// ChunkSize caps accessions per efetch call.
	ChunkSize int
	TempDir   string
	Logger    *zap.Logger
}

// Client fetches FASTA records by accession.
type Client struct {
	runner    EnvRunner
	envName   string
	chunkSize int
	tempDir   string
	logger    *zap.Logger
}

// NewClient creates a fetch client.
func NewClient(cfg *Config) *Client {
	c := &Client{
		runner:    cfg.Runner,
		envName:   cfg.EnvName,
		chunkSize: cfg.ChunkSize,
		tempDir:   cfg.TempDir,
		logger:    cfg.Logger,
	}
	if c.envName == "" {
		c.envName = DefaultEnvName
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// EnvName returns the environment efetch runs in.
func (c *Client) EnvName() string { return c.envName }

// Fetch retrieves records for accessions from an Entrez database such as
// "nuccore" or "protein". Records come back in efetch order.
func (c *Client) Fetch(ctx context.Context, db string, accessions []string) ([]record.Record, error) {
	if db == "" {
		db = DefaultDatabase
	}
	var out []record.Record
	for start := 0; start < len(accessions); start += c.chunkSize {
		end := min(start+c.chunkSize, len(accessions))
		recs, err := c.fetchChunk(ctx, db, accessions[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (c *Client) fetchChunk(ctx context.Context, db string, ids []string) ([]record.Record, error) {
	f, err := os.CreateTemp(c.tempDir, "blastr-efetch-*.fa")
	if err != nil {
		return nil, fmt.Errorf("create fetch file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	c.logger.Debug("efetch", zap.String("db", db), zap.Int("ids", len(ids)))
	runErr := c.runner.Run(ctx, conda.Invocation{
		Env:    c.envName,
		Tool:   fetchTool,
		Args:   []string{"-db", db, "-id", strings.Join(ids, ","), "-format", "fasta"},
		Stdout: f,
	})
	if err := f.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return nil, fmt.Errorf("efetch %d ids: %w", len(ids), runErr)
	}
	return ReadFASTA(path)
}

// ReadFASTA parses a FASTA or FASTQ file into records.
func ReadFASTA(path string) ([]record.Record, error) {
	if st, err := os.Stat(path); err != nil {
		return nil, err
	} else if st.Size() == 0 {
		return nil, nil
	}

	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer reader.Close()

	var out []record.Record
	for {
		rec, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		id := string(rec.ID)
		desc := strings.TrimSpace(string(bytes.TrimPrefix(rec.Name, rec.ID)))
		r, err := record.New(id, desc, string(rec.Seq.Seq))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out = append(out, r)
	}
	return out, nil
}
