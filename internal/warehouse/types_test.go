package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConnectionString(t *testing.T) {
	connStr := "scheme=https;ACCOUNT=HZDABLB-WLB56571;HOST=HZDABLB-WLB56571.azure.snowflakecomputing.com;port=443;USER=testuser;PASSWORD=testpass;DB=SNOWMOBILE.CUSTOMER360;WAREHOUSE=COMPUTE_WH;"

	cfg := ParseConnectionString(connStr)

	assert.Equal(t, "HZDABLB-WLB56571", cfg.Account)
	assert.Equal(t, "testuser", cfg.User)
	assert.Equal(t, "testpass", cfg.Password)
	assert.Equal(t, "SNOWMOBILE", cfg.Database)
	assert.Equal(t, "CUSTOMER360", cfg.Schema)
	assert.Equal(t, "COMPUTE_WH", cfg.Warehouse)
}

func TestParseConnectionStringNoTrailingSemicolon(t *testing.T) {
	cfg := ParseConnectionString("ACCOUNT=test;USER=user;PASSWORD=pa=ss;DB=mydb")

	assert.Equal(t, "test", cfg.Account)
	assert.Equal(t, "pa=ss", cfg.Password)
	assert.Equal(t, "mydb", cfg.Database)
	assert.Equal(t, "", cfg.Schema)
}

func TestQuoteTable(t *testing.T) {
	got, err := quoteTable("2025-06-23T16-21_EXPORT")
	assert.NoError(t, err)
	assert.Equal(t, `"2025-06-23T16-21_EXPORT"`, got)

	got, err = quoteTable("DB.SCHEMA.TABLE")
	assert.NoError(t, err)
	assert.Equal(t, `"DB"."SCHEMA"."TABLE"`, got)

	_, err = quoteTable(`A"B`)
	assert.Error(t, err)
	_, err = quoteTable("A..B")
	assert.Error(t, err)
}

func TestNormalizeSentiment(t *testing.T) {
	assert.Equal(t, "Positive", normalizeSentiment("😊 Positive"))
	assert.Equal(t, "Negative", normalizeSentiment("NEGATIVE"))
	assert.Equal(t, "Neutral", normalizeSentiment(" neutral 😐"))
	assert.Equal(t, "", normalizeSentiment("😐"))
	assert.Equal(t, "immediate", normalizeUrgency(" Immediate "))
}
