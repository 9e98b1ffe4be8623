package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-03-14"))
	assert.True(t, ValidDate("3/14/2026"))
	assert.True(t, ValidDate("03/14/26"))
	assert.True(t, ValidDate(" 2026-03-14 "))

	assert.False(t, ValidDate(""))
	assert.False(t, ValidDate("March 14, 2026"))
	assert.False(t, ValidDate("2026/03/14"))
}

func TestValidSheetNumber(t *testing.T) {
	assert.True(t, ValidSheetNumber("A2.01"))
	assert.True(t, ValidSheetNumber("S1"))
	assert.True(t, ValidSheetNumber("M10.2"))

	assert.False(t, ValidSheetNumber("a2.01"))
	assert.False(t, ValidSheetNumber("2.01"))
	assert.False(t, ValidSheetNumber("AA2"))
	assert.False(t, ValidSheetNumber(""))
}

func TestValidScale(t *testing.T) {
	assert.True(t, ValidScale(`1/4" = 1'-0"`))
	assert.True(t, ValidScale(`3/8"=1'-0"`))
	assert.True(t, ValidScale(`1/2 = 1'`))

	assert.False(t, ValidScale("NTS"))
	assert.False(t, ValidScale("1:50"))
	assert.False(t, ValidScale(""))
}

func TestValidMetadataField(t *testing.T) {
	assert.True(t, ValidMetadataField("date", "2026-03-14"))
	assert.False(t, ValidMetadataField("date", "someday"))

	assert.True(t, ValidMetadataField("sheet_number", "A2.01"))
	assert.False(t, ValidMetadataField("sheet_number", "sheet two"))

	assert.True(t, ValidMetadataField("scale", `1/4" = 1'-0"`))
	assert.False(t, ValidMetadataField("scale", "full size"))

	// Unpatterned fields only need content.
	assert.True(t, ValidMetadataField("project_name", "Riverside Garage"))
	assert.False(t, ValidMetadataField("project_name", "   "))
	assert.True(t, ValidMetadataField("revision", "B"))
}
