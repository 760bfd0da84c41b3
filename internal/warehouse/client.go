package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/snowflakedb/gosnowflake"
)

// Client provides read-only access to the enriched communication tables
type Client struct {
	config Config
	db     *sql.DB

	communications string
	demographics   string
	purchases      string
}

// NewClient opens a Snowflake connection pool
func NewClient(cfg Config) (*Client, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	c, err := NewClientWithDB(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithDB wraps an existing connection pool
func NewClientWithDB(db *sql.DB, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	c := &Client{config: cfg, db: db}

	var err error
	if c.communications, err = quoteTable(cfg.CommunicationsTable); err != nil {
		return nil, err
	}
	if c.demographics, err = quoteTable(cfg.DemographicsTable); err != nil {
		return nil, err
	}
	if c.purchases, err = quoteTable(cfg.PurchasesTable); err != nil {
		return nil, err
	}
	return c, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// CommunicationsQuery is the statement LoadCommunications runs. Its text is
// the cache key for memoised loads.
func (c *Client) CommunicationsQuery() string {
	return `SELECT EMAIL_ID, CUSTOMER_ID, CUSTOMER_NAME, EMAIL_CLASSIFICATION,
		SENTIMENT_CATEGORY, SENTIMENT_SCORE, ESCALATION_NEEDED, RESPONSE_URGENCY,
		DATE_RECEIVED, EXECUTIVE_SUMMARY, NEXT_STEPS, FOLLOW_UP_REQUIRED,
		KEY_TOPICS_DISCUSSED, COMPETITIVE_MENTIONS
	FROM ` + c.communications + `
	ORDER BY DATE_RECEIVED DESC`
}

// LoadCommunications returns every enriched communication, newest first
func (c *Client) LoadCommunications(ctx context.Context) ([]analytics.CommunicationRecord, error) {
	rows, err := c.db.QueryContext(ctx, c.CommunicationsQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load communications: %w", err)
	}
	defer rows.Close()

	var result []analytics.CommunicationRecord
	for rows.Next() {
		var (
			rec                               analytics.CommunicationRecord
			name, class, sentiment, urgency   sql.NullString
			summary, next, topics, competitor sql.NullString
			score                             sql.NullFloat64
			escalation, followUp              sql.NullBool
			received                          sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.CustomerID, &name, &class,
			&sentiment, &score, &escalation, &urgency,
			&received, &summary, &next, &followUp,
			&topics, &competitor); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec.CustomerName = name.String
		rec.Classification = class.String
		rec.SentimentCategory = normalizeSentiment(sentiment.String)
		rec.SentimentScore = score.Float64
		rec.Escalation = escalation.Bool
		rec.Urgency = normalizeUrgency(urgency.String)
		rec.ReceivedAt = received.Time
		rec.Summary = summary.String
		rec.NextSteps = next.String
		rec.FollowUpRequired = followUp.Bool
		rec.KeyTopics = topics.String
		rec.CompetitiveMention = competitor.String
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate communications: %w", err)
	}
	return result, nil
}

// GetGlobalSummary returns counts over the whole communication table
func (c *Client) GetGlobalSummary(ctx context.Context) (*GlobalSummary, error) {
	query := `
		SELECT
			COUNT(DISTINCT CUSTOMER_ID),
			COUNT(*),
			COUNT(CASE WHEN ESCALATION_NEEDED = true THEN 1 END),
			COUNT(CASE WHEN SENTIMENT_CATEGORY ILIKE '%Negative%' THEN 1 END),
			COUNT(CASE WHEN SENTIMENT_CATEGORY ILIKE '%Positive%' THEN 1 END),
			COALESCE(AVG(SENTIMENT_SCORE), 0)
		FROM ` + c.communications

	var s GlobalSummary
	err := c.db.QueryRowContext(ctx, query).Scan(
		&s.TotalCustomers,
		&s.TotalEmails,
		&s.Escalations,
		&s.NegativeSentiment,
		&s.PositiveSentiment,
		&s.AvgSentimentScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get global summary: %w", err)
	}
	return &s, nil
}

// Search finds communications whose customer name, customer id or summary
// contains term, newest first
func (c *Client) Search(ctx context.Context, term string, limit int) ([]SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT EMAIL_ID, CUSTOMER_ID, CUSTOMER_NAME, EMAIL_CLASSIFICATION,
			SENTIMENT_CATEGORY, EXECUTIVE_SUMMARY, DATE_RECEIVED
		FROM ` + c.communications + `
		WHERE CUSTOMER_NAME ILIKE ? ESCAPE '\\'
			OR CUSTOMER_ID ILIKE ? ESCAPE '\\'
			OR EXECUTIVE_SUMMARY ILIKE ? ESCAPE '\\'
		ORDER BY DATE_RECEIVED DESC
		LIMIT ?`

	pattern := "%" + escapeLike(term) + "%"
	rows, err := c.db.QueryContext(ctx, query, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search communications: %w", err)
	}
	defer rows.Close()

	result := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		var name, class, sentiment, summary sql.NullString
		var received sql.NullTime
		if err := rows.Scan(&r.EmailID, &r.CustomerID, &name, &class, &sentiment, &summary, &received); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.CustomerName = name.String
		r.Classification = class.String
		r.SentimentCategory = normalizeSentiment(sentiment.String)
		r.Summary = summary.String
		r.ReceivedAt = received.Time
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}
	return result, nil
}

// GetDemographics returns the demographics row of a customer, or nil when the
// customer has none
func (c *Client) GetDemographics(ctx context.Context, customerID string) (map[string]any, error) {
	rows, err := c.queryMaps(ctx, `SELECT * FROM `+c.demographics+` WHERE CUSTOMER_ID = ? LIMIT 1`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get demographics: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetPurchaseHistory returns the purchase rows of a customer
func (c *Client) GetPurchaseHistory(ctx context.Context, customerID string) ([]map[string]any, error) {
	rows, err := c.queryMaps(ctx, `SELECT * FROM `+c.purchases+` WHERE CUSTOMER_ID = ?`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase history: %w", err)
	}
	return rows, nil
}

// Complete runs a prompt through the warehouse's hosted LLM
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var out sql.NullString
	err := c.db.QueryRowContext(ctx, `SELECT SNOWFLAKE.CORTEX.COMPLETE(?, ?)`, c.config.CortexModel, prompt).Scan(&out)
	if err != nil {
		return "", fmt.Errorf("cortex complete: %w", err)
	}
	return strings.TrimSpace(out.String), nil
}

// queryMaps scans rows of an arbitrary schema into column->value maps
func (c *Client) queryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// escapeLike escapes ILIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
