package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/pkg/errors"
)

func TestNewSectionMapping(t *testing.T) {
	m, err := NewSectionMapping("idx-current", "idx-previous")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	_, err = NewSectionMapping("idx-current", "idx-current")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMappingPairInvalid))

	_, err = NewSectionMapping("", "idx-previous")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMappingPairInvalid))
}

func TestSectionMapping_Validate(t *testing.T) {
	base := func() *SectionMapping {
		return &SectionMapping{
			CurrentIndexID:  "idx-current",
			PreviousIndexID: "idx-previous",
			MainAreaFromAr:  "مجال قديم",
			MainAreaToAr:    "مجال جديد",
		}
	}

	assert.NoError(t, base().Validate())

	m := base()
	m.MainAreaToAr = ""
	assert.True(t, errors.IsCode(m.Validate(), errors.ErrCodeMappingLevelInvalid))

	m = base()
	m.ElementFromAr = "عنصر قديم"
	assert.True(t, errors.IsCode(m.Validate(), errors.ErrCodeMappingLevelInvalid))

	m = base()
	m.SubDomainFromAr = "نطاق قديم"
	assert.True(t, errors.IsCode(m.Validate(), errors.ErrCodeMappingLevelInvalid))

	m = base()
	m.SubDomainFromAr = "نطاق قديم"
	m.SubDomainToAr = "نطاق جديد"
	assert.NoError(t, m.Validate())
}

func TestSectionMapping_Level(t *testing.T) {
	m := &SectionMapping{MainAreaFromAr: "أ", MainAreaToAr: "ب"}
	assert.Equal(t, LevelMainArea, m.Level())

	m.ElementFromAr, m.ElementToAr = "ج", "د"
	assert.Equal(t, LevelElement, m.Level())

	m.SubDomainFromAr, m.SubDomainToAr = "هـ", "و"
	assert.Equal(t, LevelSubDomain, m.Level())
}

func TestTriple_Key(t *testing.T) {
	assert.Equal(t, "م|ع|ن", Triple{MainArea: "م", Element: "ع", SubDomain: "ن"}.Key())
	assert.Equal(t, "م||", Triple{MainArea: "م"}.Key())
	assert.True(t, Triple{}.IsZero())
}
