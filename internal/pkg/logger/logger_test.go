package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
		SetRedactPII(true)
	})
	return &buf
}

func TestInfo_RedactsCustomerFields(t *testing.T) {
	buf := capture(t)

	Info("profile loaded", "customer_id", "C42", "customer_name", "Ana Ruiz", "note", "reply to ana.ruiz@example.com")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "profile loaded", entry["msg"])
	assert.Equal(t, "C42", entry["customer_id"])
	assert.Equal(t, "A*** R***", entry["customer_name"])
	assert.Equal(t, "reply to an***@example.com", entry["note"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("dropped")
	Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestRedactionDisabled(t *testing.T) {
	buf := capture(t)
	SetRedactPII(false)

	Info("raw", "customer_name", "Ana Ruiz")
	assert.Contains(t, buf.String(), "Ana Ruiz")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactName(t *testing.T) {
	assert.Equal(t, "Á*** R***", RedactName("Álvaro  Ruiz"))
	assert.Equal(t, "", RedactName(""))
}

func TestWith_AddsFieldsAndKeepsTypes(t *testing.T) {
	buf := capture(t)

	With("component", "cache").Warn("cache write failed", "attempt", 2, "hit", false)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, false, entry["hit"])
}

func TestWith_SharesLevel(t *testing.T) {
	buf := capture(t)
	child := With("component", "insights")
	SetLevel(ERROR)

	child.Warn("dropped")
	assert.Empty(t, buf.String())
}
