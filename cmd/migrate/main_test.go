package main

import (
	"bytes"
	"testing"
	"time"

	"murmur/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		argv    []string
		want    string
		wantErr bool
	}{
		{argv: nil, wantErr: true},
		{argv: []string{"up"}, want: "up"},
		{argv: []string{"status"}, want: "status"},
		{argv: []string{"down", "3"}, want: "down"},
		{argv: []string{"down"}, wantErr: true},
		{argv: []string{"up", "extra"}, wantErr: true},
		{argv: []string{"sideways"}, wantErr: true},
	}
	for _, tt := range tests {
		name, _, err := lookup(tt.argv)
		if tt.wantErr {
			assert.ErrorIs(t, err, errUsage, "%v", tt.argv)
			continue
		}
		require.NoError(t, err, "%v", tt.argv)
		assert.Equal(t, tt.want, name)
	}
}

func TestWriteStatus(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := &database.SchemaStatus{
		Mode:        database.SchemaModeSQL,
		Environment: "production",
		WillRunSQL:  true,
		Ledger: []database.LedgerEntry{
			{Version: 1, Name: "engagement", State: database.LedgerApplied, Checksum: "0123456789abcdef0123", AppliedAt: &at},
			{Version: 2, Name: "report_index", State: database.LedgerPending, Checksum: "fedcba"},
		},
		MissingTables: []string{"reports"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, st))
	out := buf.String()

	assert.Contains(t, out, "mode sql (env production): sql=true automigrate=false")
	assert.Regexp(t, `000001\s+engagement\s+applied`, out)
	assert.Regexp(t, `000002\s+report_index\s+pending\s+-`, out)
	assert.Contains(t, out, "2026-03-01 12:00:00")
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abc")
	assert.Contains(t, out, "missing table: reports")
}
