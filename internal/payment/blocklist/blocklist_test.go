package blocklist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-checkout/internal/domain/payment"
)

func writeGz(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	return path
}

func TestLoad(t *testing.T) {
	a := writeGz(t, "fraud.gz", "# confirmed fraud", "tok_stolen_1", "", "tok_stolen_2")
	b := writeGz(t, "chargebacks.gz", "  tok_chargeback  ")

	bl, err := Load(context.Background(), Options{Capacity: 1000}, a, b)
	require.NoError(t, err)

	for _, instrument := range []string{"tok_stolen_1", "tok_stolen_2", "tok_chargeback", " tok_chargeback"} {
		assert.True(t, bl.Contains(instrument), instrument)
	}
	assert.False(t, bl.Contains("tok_visa"))
	assert.False(t, bl.Contains("# confirmed fraud"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), Options{}, filepath.Join(t.TempDir(), "missing.gz"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.gz")
}

func TestLoad_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.gz")
	require.NoError(t, os.WriteFile(path, []byte("tok_plain\n"), 0o600))

	_, err := Load(context.Background(), Options{}, path)
	require.Error(t, err)
}

func TestLoad_NoFiles(t *testing.T) {
	bl, err := Load(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, bl.Contains("tok_visa"))

	bl.Add("tok_visa")
	assert.True(t, bl.Contains("tok_visa"))
}

type mockGateway struct {
	calls int
}

func (m *mockGateway) Charge(_ context.Context, _ decimal.Decimal, _ string) (*payment.Result, error) {
	m.calls++
	return &payment.Result{Success: true, TransactionID: "txn"}, nil
}

func TestScreen(t *testing.T) {
	bl := New(Options{Capacity: 100})
	bl.Add("tok_stolen")
	next := &mockGateway{}
	g := Screen(next, bl)

	res, err := g.Charge(context.Background(), decimal.NewFromInt(5), "tok_stolen")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, DeclineReason, res.Error)
	assert.Zero(t, next.calls)

	res, err = g.Charge(context.Background(), decimal.NewFromInt(5), "tok_visa")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, next.calls)
}
