package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/trialgraph/trialgraph/internal/model"
)

// schemaQueries establish identity constraints and lookup indexes. All are
// idempotent and safe to run on every start.
var schemaQueries = []string{
	"CREATE CONSTRAINT trial_nct_id IF NOT EXISTS FOR (t:Trial) REQUIRE t.nct_id IS UNIQUE",
	"CREATE CONSTRAINT drug_name IF NOT EXISTS FOR (d:Drug) REQUIRE d.name IS UNIQUE",
	"CREATE CONSTRAINT condition_name IF NOT EXISTS FOR (c:Condition) REQUIRE c.name IS UNIQUE",
	"CREATE CONSTRAINT org_name IF NOT EXISTS FOR (o:Organization) REQUIRE o.name IS UNIQUE",
	"CREATE INDEX trial_phase IF NOT EXISTS FOR (t:Trial) ON (t.phase)",
	"CREATE INDEX trial_status IF NOT EXISTS FOR (t:Trial) ON (t.status)",
}

// loadCypher upserts one batch of clean records. Relationship route and
// dosage_form are only written when the inferred value is known, so a later
// load carrying less information never erases a recorded value.
const loadCypher = `
UNWIND $batch AS data

MERGE (t:Trial {nct_id: data.nct_id})
SET t.title = data.title,
    t.phase = data.phase,
    t.status = data.status,
    t.last_updated = datetime()

FOREACH (d IN data.drugs |
    MERGE (drug:Drug {name: d.name})
    MERGE (t)-[r:STUDIED_IN]->(drug)
    FOREACH (_ IN CASE WHEN d.route <> 'Unknown' THEN [1] ELSE [] END | SET r.route = d.route)
    FOREACH (_ IN CASE WHEN d.dosage_form <> 'Unknown' THEN [1] ELSE [] END | SET r.dosage_form = d.dosage_form)
)

FOREACH (c IN data.conditions |
    MERGE (cond:Condition {name: c.name})
    MERGE (t)-[:STUDIES_CONDITION]->(cond)
)

FOREACH (s IN data.sponsors |
    MERGE (org:Organization {name: s.name})
    MERGE (t)-[rel:SPONSORED_BY]->(org)
    SET rel.class = s.class
)
`

// Client loads clean study records into Neo4j.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.SugaredLogger
}

// NewClient creates a driver and verifies connectivity before returning.
func NewClient(ctx context.Context, cfg model.GraphConfig, log *zap.SugaredLogger) (*Client, error) {
	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("init graph driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	log.Infow("connected to graph store", "uri", cfg.URI)
	return &Client{
		driver:   driver,
		database: cfg.Database,
		log:      log,
	}, nil
}

// EnsureSchema applies uniqueness constraints and indexes. Idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	session := c.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	for _, query := range schemaQueries {
		if _, err := session.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("apply schema %q: %w", query, err)
		}
	}
	c.log.Infow("graph schema ensured", "statements", len(schemaQueries))
	return nil
}

// LoadBatch upserts a batch of records in one write transaction, merging
// trials, drugs, conditions and organizations on their business keys.
func (c *Client) LoadBatch(ctx context.Context, records []model.CleanStudyRecord) error {
	if len(records) == 0 {
		return nil
	}

	session := c.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	start := time.Now()
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, loadCypher, map[string]any{"batch": batchParams(records)})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("load batch of %d: %w", len(records), err)
	}

	c.log.Infow("batch loaded", "records", len(records), "took", time.Since(start))
	return nil
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
}

// batchParams shapes clean records into driver parameter maps. Unknown
// attribute values are passed through; the Cypher decides what to write.
func batchParams(records []model.CleanStudyRecord) []map[string]any {
	batch := make([]map[string]any, 0, len(records))
	for _, record := range records {
		drugs := make([]map[string]any, 0, len(record.Drugs))
		for _, d := range record.Drugs {
			drugs = append(drugs, map[string]any{
				"name":        d.Name,
				"route":       d.Route,
				"dosage_form": d.DosageForm,
			})
		}

		conditions := make([]map[string]any, 0, len(record.Conditions))
		for _, cond := range record.Conditions {
			conditions = append(conditions, map[string]any{"name": cond.Name})
		}

		sponsors := make([]map[string]any, 0, len(record.Sponsors))
		for _, s := range record.Sponsors {
			sponsors = append(sponsors, map[string]any{
				"name":  s.Name,
				"class": optional(s.Class),
			})
		}

		batch = append(batch, map[string]any{
			"nct_id":     record.NCTID,
			"title":      record.Title,
			"phase":      optional(record.Phase),
			"status":     optional(record.Status),
			"drugs":      drugs,
			"conditions": conditions,
			"sponsors":   sponsors,
		})
	}
	return batch
}

// optional maps a nullable string to a driver value, keeping nulls null.
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
