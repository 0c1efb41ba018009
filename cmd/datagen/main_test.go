package main

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, generate(&a, 42))
	require.NoError(t, generate(&b, 42))
	assert.Equal(t, a.Bytes(), b.Bytes(), "same seed must yield identical output")

	var c bytes.Buffer
	require.NoError(t, generate(&c, 7))
	assert.NotEqual(t, a.Bytes(), c.Bytes(), "different seed must yield different output")
}

func TestGenerateShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, generate(&buf, 42))

	content := strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)

	// header + 48 months * 8 customers
	require.Len(t, rows, 1+48*8)
	assert.Equal(t, []string{"Tarih", "Müşteri", "Segment", "Satış", "Tahsilat", "Gider", "Stok"}, rows[0])

	assert.Equal(t, "2022-01-31", rows[1][0])
	assert.Equal(t, "2025-12-31", rows[len(rows)-1][0])
}

func TestGenerateControlledMargins(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, generate(&buf, 42))

	content := strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)

	for _, row := range rows[1:] {
		customer := row[1]
		sales := parseF(t, row[3])
		collections := parseF(t, row[4])
		expense := parseF(t, row[5])

		switch customer {
		case "Müşteri_0":
			assert.Equal(t, collections, expense, "zero-margin customer")
		case "Müşteri_10":
			assert.Equal(t, sales, collections)
			assert.InDelta(t, sales*0.90, expense, 0.01)
		case "Müşteri_30":
			assert.InDelta(t, sales*0.70, expense, 0.01)
		}
	}
}

func parseF(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}
