package repositories

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-service/internal/models"
)

func TestJournalsSchemaAcceptsAllSourceTypes(t *testing.T) {
	schema, err := os.ReadFile("../../migrations/000003_create_journals.up.sql")
	require.NoError(t, err)

	start := strings.Index(string(schema), "source_type ENUM(")
	require.GreaterOrEqual(t, start, 0, "journals schema must define source_type as an ENUM")
	rest := string(schema)[start:]
	enum := rest[:strings.Index(rest, ")")]

	for _, sourceType := range []models.SourceType{
		models.SourceManual,
		models.SourceInvoice,
		models.SourceBill,
		models.SourceReceipt,
		models.SourcePayment,
		models.SourceReversal,
	} {
		assert.Contains(t, enum, fmt.Sprintf("'%s'", sourceType),
			"source_type ENUM must accept %q", sourceType)
	}
}
