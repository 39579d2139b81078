package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/karvio/emissions-service/internal/model"
)

func TestParseCSV(t *testing.T) {
	companyID := uuid.New()
	data := []byte(`activity_type,amount,unit,country_code,sub_type,scope,date,description
electricity,1500,kWh,SE,,2,2026-03-15,Office power
Natural Gas,120,m3,,,,2026-03-01,
transport_freight,500,km,NO,truck,3,2026-03-10,Deliveries
electricity,-5,kWh,SE,,,2026-03-15,negative amount
electricity,not_a_number,kWh,SE,,,2026-03-15,bad amount
`)

	records, skipped, err := ParseCSV(data, companyID)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, companyID, first.CompanyID)
	assert.Equal(t, model.ActivityElectricity, first.ActivityType)
	assert.Equal(t, model.Scope2, first.Scope)
	assert.InDelta(t, 1500.0, first.Amount, 1e-9)
	assert.Equal(t, "kWh", first.Unit)
	assert.Equal(t, "SE", first.CountryCode)
	assert.Equal(t, model.SourceImport, first.SourceType)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), first.Date)
	require.NotNil(t, first.Description)
	assert.Equal(t, "Office power", *first.Description)

	// "Natural Gas" is normalized, missing country defaults, scope inferred
	second := records[1]
	assert.Equal(t, model.ActivityNaturalGas, second.ActivityType)
	assert.Equal(t, model.Scope1, second.Scope)
	assert.Equal(t, "SE", second.CountryCode)
	assert.Nil(t, second.Description)

	third := records[2]
	require.NotNil(t, third.SubType)
	assert.Equal(t, "truck", *third.SubType)
	assert.Equal(t, model.Scope3, third.Scope)
}

func TestParseCSVHeaderAliases(t *testing.T) {
	data := []byte("Category,Quantity,UOM,Country\nelectricity,100,kWh,DK\n")

	records, skipped, err := ParseCSV(data, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, model.ActivityElectricity, records[0].ActivityType)
	assert.Equal(t, "DK", records[0].CountryCode)
}

func TestParseCSVDecimalComma(t *testing.T) {
	data := []byte("activity_type,amount,unit\ndiesel,\"12,5\",l\n")

	records, _, err := ParseCSV(data, uuid.New())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 12.5, records[0].Amount, 1e-9)
	assert.Equal(t, model.Scope1, records[0].Scope)
}

func TestParseCSVNoHeader(t *testing.T) {
	_, _, err := ParseCSV(nil, uuid.New())
	assert.ErrorIs(t, err, ErrNoHeader)

	_, _, err = ParseCSV([]byte("foo,bar\n1,2\n"), uuid.New())
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseCSVLatin1(t *testing.T) {
	// "Malmö" in Latin-1; the ö is byte 0xF6, invalid as UTF-8
	data := []byte("activity_type,amount,unit,description\nelectricity,10,kWh,Malm\xf6\n")

	records, _, err := ParseCSV(data, uuid.New())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Description)
	assert.Equal(t, "Malmö", *records[0].Description)
}

func TestParseCSVUnknownActivityFallsBackToOther(t *testing.T) {
	data := []byte("activity_type,amount,unit\nteleportation,10,kWh\n")

	records, _, err := ParseCSV(data, uuid.New())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ActivityOther, records[0].ActivityType)
	assert.Equal(t, model.Scope3, records[0].Scope)
}

func TestParseXLSX(t *testing.T) {
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	rows := [][]interface{}{
		{"activity_type", "amount", "unit", "country_code", "date"},
		{"electricity", 1500, "kWh", "SE", "2026-03-15"},
		{"diesel", "zero", "l", "SE", "2026-03-15"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))

	records, skipped, err := ParseXLSX(buf.Bytes(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, model.ActivityElectricity, records[0].ActivityType)
	assert.InDelta(t, 1500.0, records[0].Amount, 1e-9)
}

func TestParseXLSXNotAWorkbook(t *testing.T) {
	_, _, err := ParseXLSX([]byte("definitely not a zip"), uuid.New())
	assert.Error(t, err)
}
