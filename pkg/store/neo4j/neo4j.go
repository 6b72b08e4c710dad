// Package neo4j implements the graph store on top of the Neo4j Bolt driver.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type ClientParams struct {
	URI      string
	Username string
	Password string
	Database string

	MaxConnectionPoolSize int
	AcquisitionTimeout    time.Duration
	ConnectRetries        int
}

// Client is a pooled, read-only view of the knowledge graph. One driver is
// shared by all requests; every call opens its own session.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

var (
	_ store.GraphStore    = (*Client)(nil)
	_ store.EntityCatalog = (*Client)(nil)
)

// NewClient creates the driver and verifies connectivity, retrying with
// exponential backoff.
func NewClient(ctx context.Context, params ClientParams) (*Client, error) {
	if params.URI == "" {
		return nil, errors.New("neo4j uri is required")
	}
	auth := neo4j.BasicAuth(params.Username, params.Password, "")
	configure := func(cfg *neo4j.Config) {
		if params.MaxConnectionPoolSize > 0 {
			cfg.MaxConnectionPoolSize = params.MaxConnectionPoolSize
		}
		if params.AcquisitionTimeout > 0 {
			cfg.ConnectionAcquisitionTimeout = params.AcquisitionTimeout
		}
	}

	driver, err := neo4j.NewDriverWithContext(params.URI, auth, configure)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	tries := params.ConnectRetries
	if tries <= 0 {
		tries = 5
	}
	_, err = util.RetryWithBackoff(ctx, tries, 250*time.Millisecond, func(ctx context.Context) (struct{}, error) {
		err := driver.VerifyConnectivity(ctx)
		if err != nil {
			logger.Warn("Neo4j not reachable yet", "uri", params.URI, "err", err)
		}
		return struct{}{}, err
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return &Client{driver: driver, database: params.Database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// Ping checks that the database is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*neo4j.Record)
	return records, nil
}

// Query runs a read query returning columns a, b and r. Rows that fail to
// decode are logged and skipped.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]store.Row, error) {
	start := time.Now()
	records, err := c.read(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j query failed: %w", err)
	}

	rows := make([]store.Row, 0, len(records))
	for _, rec := range records {
		row, err := decodeRow(rec)
		if err != nil {
			logger.Warn("Dropping graph row", "err", err)
			continue
		}
		rows = append(rows, row)
	}
	logger.Debug("Graph query done", "rows", len(rows), "took", time.Since(start))
	return rows, nil
}

func (c *Client) FindNodeID(ctx context.Context, name string, label schema.EntityType) (string, error) {
	cypher := fmt.Sprintf("MATCH (n%s {name: $name}) RETURN elementId(n) AS id LIMIT 1", schema.LabelClause(label))
	records, err := c.read(ctx, cypher, map[string]any{"name": name})
	if err != nil {
		return "", fmt.Errorf("failed to look up node %q: %w", name, err)
	}
	if len(records) == 0 {
		return "", store.ErrNotFound
	}
	id, _, err := neo4j.GetRecordValue[string](records[0], "id")
	if err != nil {
		return "", fmt.Errorf("failed to read node id: %w", err)
	}
	return id, nil
}

func (c *Client) GetEntity(ctx context.Context, label schema.EntityType, name string) (store.Node, error) {
	clause := schema.LabelClause(label)
	if clause == "" {
		return store.Node{}, fmt.Errorf("unknown entity type %q", label)
	}
	cypher := fmt.Sprintf("MATCH (n%s {name: $name}) RETURN n LIMIT 1", clause)
	records, err := c.read(ctx, cypher, map[string]any{"name": name})
	if err != nil {
		return store.Node{}, fmt.Errorf("failed to get entity %q: %w", name, err)
	}
	if len(records) == 0 {
		return store.Node{}, store.ErrNotFound
	}
	return nodeColumn(records[0], "n")
}

func (c *Client) SearchEntities(ctx context.Context, label schema.EntityType, keyword string, limit int) ([]store.Node, error) {
	clause := schema.LabelClause(label)
	if clause == "" {
		return nil, fmt.Errorf("unknown entity type %q", label)
	}
	if limit <= 0 {
		limit = 10
	}
	cypher := fmt.Sprintf(
		"MATCH (n%s) WHERE $keyword = '' OR n.name CONTAINS $keyword RETURN n ORDER BY n.name LIMIT $limit",
		clause,
	)
	records, err := c.read(ctx, cypher, map[string]any{"keyword": keyword, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to search entities: %w", err)
	}

	nodes := make([]store.Node, 0, len(records))
	for _, rec := range records {
		n, err := nodeColumn(rec, "n")
		if err != nil {
			logger.Warn("Dropping entity", "err", err)
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Client) EntityNames(ctx context.Context, label schema.EntityType) ([]string, error) {
	clause := schema.LabelClause(label)
	if clause == "" {
		return nil, fmt.Errorf("unknown entity type %q", label)
	}
	cypher := fmt.Sprintf("MATCH (n%s) WHERE n.name IS NOT NULL RETURN DISTINCT n.name AS name ORDER BY name", clause)
	records, err := c.read(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s names: %w", label, err)
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		name, _, err := neo4j.GetRecordValue[string](rec, "name")
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return store.DedupeStrings(names), nil
}
