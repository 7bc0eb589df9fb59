package utils_test

import (
	"bytes"
	"testing"

	"github.com/finlens/finlens_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealBoxRoundTrip(t *testing.T) {
	box, err := utils.NewSealBox(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	require.NotNil(t, box)

	sealed, err := box.Seal("refresh-token-value")
	require.NoError(t, err)
	assert.NotEqual(t, "refresh-token-value", sealed)

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-value", opened)
}

func TestSealBoxRejectsBadKeyLength(t *testing.T) {
	_, err := utils.NewSealBox([]byte("short"))
	assert.Error(t, err)
}

func TestSealBoxNilPassesThrough(t *testing.T) {
	box, err := utils.NewSealBox(nil)
	require.NoError(t, err)
	require.Nil(t, box)

	sealed, err := box.Seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", sealed)

	opened, err := box.Open("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", opened)
}

func TestSealBoxOpenRejectsTampering(t *testing.T) {
	box, err := utils.NewSealBox(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	otherBox, err := utils.NewSealBox(bytes.Repeat([]byte{0x43}, 32))
	require.NoError(t, err)

	_, err = otherBox.Open(sealed)
	assert.Error(t, err)
}
