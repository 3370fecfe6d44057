package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub/internal/domain/offer"
)

func writeList(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func testConfig(minSources int) importConfig {
	return importConfig{
		MinSources:    minSources,
		ExpectedCodes: 1000,
		DefaultAmount: decimal.NewFromInt(50),
		BatchSize:     2,
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line   string
		ok     bool
		code   string
		amount string
	}{
		{line: "save10", ok: true, code: "SAVE10"},
		{line: " food50 , 100 ", ok: true, code: "FOOD50", amount: "100"},
		{line: "BONUS25,12.345", ok: true, code: "BONUS25", amount: "12.35"},
		{line: "", ok: false},
		{line: "# header", ok: false},
		{line: "abc", ok: false},
		{line: "NEGATIVE1,-5", ok: false},
		{line: "BADAMOUNT,x", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			e, ok := parseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.code, e.code)
			assert.Equal(t, tt.amount != "", e.hasAmount)
			if tt.amount != "" {
				assert.Equal(t, tt.amount, e.amount.String())
			}
		})
	}
}

func TestCollectCoupons(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeList(t, dir, "a.gz", "SAVE10", "FOOD50,100", "ONLYHERE"),
		writeList(t, dir, "b.gz", "save10", "FOOD50,80", "ELSEWHERE"),
		writeList(t, dir, "c.gz", "ELSEWHERE", "FOOD50"),
	}

	coupons, err := collectCoupons(context.Background(), files, testConfig(2))
	require.NoError(t, err)

	got := make(map[string]string)
	for _, c := range coupons {
		got[c.Code] = c.Amount.String()
	}
	assert.Equal(t, map[string]string{
		"ELSEWHERE": "50",
		"FOOD50":    "100",
		"SAVE10":    "50",
	}, got)

	coupons, err = collectCoupons(context.Background(), files, testConfig(3))
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, "FOOD50", coupons[0].Code)

	coupons, err = collectCoupons(context.Background(), files, testConfig(1))
	require.NoError(t, err)
	assert.Len(t, coupons, 4)
}

func TestCollectCoupons_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeList(t, dir, "a.gz", "SAVE10")}

	_, err := collectCoupons(context.Background(), files, testConfig(2))
	require.Error(t, err)
	_, err = collectCoupons(context.Background(), files, testConfig(0))
	require.Error(t, err)
}

func TestWriteBatches(t *testing.T) {
	coupons := []offer.Coupon{{Code: "A"}, {Code: "B"}, {Code: "C"}}

	var sizes []int
	err := writeBatches(context.Background(), coupons, 2, func(_ context.Context, batch []offer.Coupon) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, sizes)

	boom := errors.New("boom")
	err = writeBatches(context.Background(), coupons, 2, func(context.Context, []offer.Coupon) error { return boom })
	require.ErrorIs(t, err, boom)
}
