package warehouse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Config holds Snowflake connection and table settings
type Config struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Role      string `yaml:"role"`

	CommunicationsTable string `yaml:"communications_table"`
	DemographicsTable   string `yaml:"demographics_table"`
	PurchasesTable      string `yaml:"purchases_table"`

	// CortexModel is the model passed to SNOWFLAKE.CORTEX.COMPLETE
	CortexModel string `yaml:"cortex_model"`
}

// Default table names of the enriched communication export
const (
	DefaultCommunicationsTable = "FLATTENED_EMAIL_INTELLIGENCE"
	DefaultDemographicsTable   = "CUSTOMER_DEMOGRAPHICS"
	DefaultPurchasesTable      = "VEHICLE_PURCHASE_HISTORY"
	DefaultCortexModel         = "llama3.1-70b"
)

// WithDefaults fills unset table names and model
func (c Config) WithDefaults() Config {
	if c.CommunicationsTable == "" {
		c.CommunicationsTable = DefaultCommunicationsTable
	}
	if c.DemographicsTable == "" {
		c.DemographicsTable = DefaultDemographicsTable
	}
	if c.PurchasesTable == "" {
		c.PurchasesTable = DefaultPurchasesTable
	}
	if c.CortexModel == "" {
		c.CortexModel = DefaultCortexModel
	}
	return c
}

// ParseConnectionString extracts components from an ADO-style connection string
// Format: scheme=https;ACCOUNT=xxx;HOST=yyy;port=443;USER=zzz;PASSWORD=www;DB=aaa.bbb;WAREHOUSE=ccc;
func ParseConnectionString(connStr string) Config {
	parts := make(map[string]string)
	for _, field := range strings.Split(connStr, ";") {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	// DB may carry database.schema
	database, schema, _ := strings.Cut(parts["DB"], ".")

	return Config{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Database:  database,
		Schema:    schema,
		Warehouse: parts["WAREHOUSE"],
		Role:      parts["ROLE"],
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// quoteTable validates a possibly qualified table name and quotes each part.
// Export tables carry names like "2025-06-23T16-21_EXPORT" that need quoting.
func quoteTable(name string) (string, error) {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if !identRe.MatchString(p) {
			return "", fmt.Errorf("invalid table name %q", name)
		}
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, "."), nil
}

// GlobalSummary holds warehouse-side counts over the whole communication table
type GlobalSummary struct {
	TotalCustomers    int64   `json:"total_customers"`
	TotalEmails       int64   `json:"total_emails"`
	Escalations       int64   `json:"escalations"`
	NegativeSentiment int64   `json:"negative_sentiment"`
	PositiveSentiment int64   `json:"positive_sentiment"`
	AvgSentimentScore float64 `json:"avg_sentiment_score"`
}

// SearchResult is one row returned by a customer search
type SearchResult struct {
	EmailID           string    `json:"email_id"`
	CustomerID        string    `json:"customer_id"`
	CustomerName      string    `json:"customer_name"`
	Classification    string    `json:"classification"`
	SentimentCategory string    `json:"sentiment_category"`
	Summary           string    `json:"summary"`
	ReceivedAt        time.Time `json:"received_at"`
}
