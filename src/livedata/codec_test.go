package livedata

import (
	"testing"

	"watchlist-trader/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	stats, err := DecodeSnapshot([]byte(`{
		"AAPL": {"price": 190.5, "hod": 192, "lod": 188.25, "vwap": 190.1},
		"MSFT": {"last": 410, "hod": null, "lod": 405},
		"TSLA": {}
	}`))
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, 190.5, *stats["AAPL"].Price)
	assert.Equal(t, 190.1, *stats["AAPL"].VWAP)

	assert.Equal(t, 410.0, *stats["MSFT"].Price)
	assert.Nil(t, stats["MSFT"].HOD)
	assert.Nil(t, stats["MSFT"].VWAP)

	assert.Nil(t, stats["TSLA"].Price)
}

func TestDecodeSnapshotRejectsMalformed(t *testing.T) {
	for _, frame := range []string{``, `[]`, `"hello"`, `{"AAPL": 12}`, `{"AAPL": {"price": "x"}`} {
		_, err := DecodeSnapshot([]byte(frame))
		require.Error(t, err, frame)
		var decodeErr *helpers.DecodeError
		assert.ErrorAs(t, err, &decodeErr, frame)
	}
}

func TestDecodeSnapshotEmptyObject(t *testing.T) {
	stats, err := DecodeSnapshot([]byte(` {} `))
	require.NoError(t, err)
	assert.Empty(t, stats)
}
