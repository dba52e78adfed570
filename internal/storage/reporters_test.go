package storage

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "jane smith", NormalizeName("  Jane Smith "))
	assert.Equal(t, "jane smith", NormalizeName("JANE SMITH"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestVerdictFromBool(t *testing.T) {
	assert.Equal(t, VerdictUnknown, verdictFromBool(pgtype.Bool{}))
	assert.Equal(t, VerdictRelevant, verdictFromBool(pgtype.Bool{Bool: true, Valid: true}))
	assert.Equal(t, VerdictNotRelevant, verdictFromBool(pgtype.Bool{Bool: false, Valid: true}))

	assert.False(t, VerdictUnknown.Known())
	assert.True(t, VerdictRelevant.Known())
	assert.True(t, VerdictNotRelevant.Known())
}

func TestSocialLinksEmpty(t *testing.T) {
	var nilLinks *SocialLinks

	assert.True(t, nilLinks.Empty())
	assert.True(t, (&SocialLinks{}).Empty())
	assert.False(t, (&SocialLinks{TwitterHandle: "@x"}).Empty())
}

func TestToText(t *testing.T) {
	assert.False(t, toText("").Valid)

	v := toText("value")
	assert.True(t, v.Valid)
	assert.Equal(t, "value", v.String)
}
