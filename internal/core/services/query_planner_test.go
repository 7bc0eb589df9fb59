package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGeneratedSelection(t *testing.T) {
	const realm = "realm-9"
	valid := "SELECT realm_id, year, month, data, created_at, updated_at FROM financial_snapshots WHERE realm_id = 'realm-9' AND year = 2025 ORDER BY year, month LIMIT 12"

	testCases := []struct {
		name    string
		query   string
		wantErr string
	}{
		{name: "valid statement", query: valid},
		{name: "not a select", query: "DELETE FROM financial_snapshots WHERE realm_id = 'realm-9' LIMIT 5", wantErr: "not a SELECT"},
		{name: "embedded mutation", query: "SELECT * FROM financial_snapshots WHERE realm_id = 'realm-9' AND 1 = (delete from x) LIMIT 5", wantErr: "forbidden keyword"},
		{name: "second statement", query: valid + "; DROP TABLE financial_snapshots", wantErr: "multiple statements"},
		{name: "wrong table", query: "SELECT * FROM provider_connections WHERE realm_id = 'realm-9' LIMIT 5", wantErr: "snapshot table"},
		{name: "missing realm scope", query: "SELECT * FROM financial_snapshots WHERE year = 2025 LIMIT 5", wantErr: "missing realm scope"},
		{name: "foreign realm", query: "SELECT * FROM financial_snapshots WHERE realm_id = 'realm-2' LIMIT 5", wantErr: "missing realm scope"},
		{name: "missing limit", query: "SELECT * FROM financial_snapshots WHERE realm_id = 'realm-9'", wantErr: "missing LIMIT"},
		{name: "limit above ceiling", query: "SELECT * FROM financial_snapshots WHERE realm_id = 'realm-9' LIMIT 500", wantErr: "out of bounds"},
		{name: "zero limit", query: "SELECT * FROM financial_snapshots WHERE realm_id = 'realm-9' LIMIT 0", wantErr: "out of bounds"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateGeneratedSelection(tc.query, realm, 24)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "SELECT 1 LIMIT 1", stripCodeFence("SELECT 1 LIMIT 1"))
	assert.Equal(t, "SELECT 1 LIMIT 1", stripCodeFence("```sql\nSELECT 1 LIMIT 1\n```"))
	assert.Equal(t, "SELECT 1 LIMIT 1", stripCodeFence("```\nSELECT 1 LIMIT 1\n```"))
	assert.Equal(t, "NONE", stripCodeFence("  NONE\n"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)

	// Degenerate inputs score zero instead of NaN.
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}
