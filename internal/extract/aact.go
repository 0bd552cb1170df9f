package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/trialgraph/trialgraph/internal/model"
)

// Client streams clinical-trial records from the AACT Postgres database.
type Client struct {
	pool      *pgxpool.Pool
	queryPath string
	log       *zap.SugaredLogger
}

// NewClient connects to AACT and verifies the connection. The extraction
// query is read lazily at stream time so the file may change between runs.
func NewClient(ctx context.Context, cfg model.SourceConfig, log *zap.SugaredLogger) (*Client, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse source config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to source: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping source: %w", err)
	}

	log.Infow("connected to source database", "host", cfg.Host, "database", cfg.Database)
	return &Client{
		pool:      pool,
		queryPath: cfg.QueryPath,
		log:       log,
	}, nil
}

// Preflight verifies the source is usable before any record is processed:
// the connection answers and the extraction query file is present.
func (c *Client) Preflight(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("source unreachable: %w", err)
	}
	if _, err := os.Stat(c.queryPath); err != nil {
		return fmt.Errorf("extraction query file: %w", err)
	}
	return nil
}

// StreamTrials starts the extraction query and returns a lazily consumed
// stream of raw records. The caller owns the stream and must Close it.
func (c *Client) StreamTrials(ctx context.Context) (*TrialStream, error) {
	sql, err := os.ReadFile(c.queryPath)
	if err != nil {
		return nil, fmt.Errorf("read extraction query %s: %w", c.queryPath, err)
	}

	rows, err := c.pool.Query(ctx, string(sql))
	if err != nil {
		return nil, fmt.Errorf("start extraction query: %w", err)
	}

	c.log.Infow("extraction query started", "query", c.queryPath)
	return &TrialStream{rows: rows, log: c.log}, nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}

// TrialStream is a one-shot, non-restartable cursor over extracted trials.
// It implements batch.Source.
type TrialStream struct {
	rows    pgx.Rows
	log     *zap.SugaredLogger
	fetched int
}

// Next returns the next raw record, io.EOF at stream end. Rows are pulled
// from the wire as requested; the result set is never materialized.
func (s *TrialStream) Next(ctx context.Context) (*model.RawStudyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("read source row: %w", err)
		}
		return nil, io.EOF
	}

	var (
		nctID, title, phase, status     *string
		drugsJSON, condsJSON, sponsJSON []byte
	)
	if err := s.rows.Scan(&nctID, &title, &phase, &status, &drugsJSON, &condsJSON, &sponsJSON); err != nil {
		return nil, fmt.Errorf("scan source row: %w", err)
	}

	record, err := recordFromRow(nctID, title, phase, status, drugsJSON, condsJSON, sponsJSON)
	if err != nil {
		return nil, err
	}

	s.fetched++
	if s.fetched%500 == 0 {
		s.log.Infow("extraction progress", "fetched", s.fetched)
	}
	return record, nil
}

// Close releases the underlying rows. Safe to call more than once.
func (s *TrialStream) Close() {
	s.rows.Close()
}

// Fetched reports how many rows have been read so far.
func (s *TrialStream) Fetched() int {
	return s.fetched
}

// recordFromRow maps one extraction row to a raw record. The entity lists
// arrive as JSON aggregates built by the query; a NULL aggregate means the
// trial simply has no entries of that kind.
func recordFromRow(nctID, title, phase, status *string, drugsJSON, condsJSON, sponsJSON []byte) (*model.RawStudyRecord, error) {
	record := &model.RawStudyRecord{
		NCTID:         nctID,
		BriefTitle:    title,
		Phase:         phase,
		OverallStatus: status,
	}

	if len(drugsJSON) > 0 {
		if err := json.Unmarshal(drugsJSON, &record.Drugs); err != nil {
			return nil, fmt.Errorf("decode drugs for %s: %w", derefID(nctID), err)
		}
	}
	if len(condsJSON) > 0 {
		if err := json.Unmarshal(condsJSON, &record.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions for %s: %w", derefID(nctID), err)
		}
	}
	if len(sponsJSON) > 0 {
		if err := json.Unmarshal(sponsJSON, &record.Sponsors); err != nil {
			return nil, fmt.Errorf("decode sponsors for %s: %w", derefID(nctID), err)
		}
	}
	return record, nil
}

func derefID(id *string) string {
	if id == nil {
		return "<missing nct_id>"
	}
	return *id
}
