package led

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestSPI_Empty(t *testing.T) {
	buf := bytes.Buffer{}
	s, err := NewSPI(spitest.NewRecordRaw(&buf), 0, 2500*physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", s.String())
	assert.NoError(t, s.Write([]byte{}))
}

func TestSPI_Write(t *testing.T) {
	buf := bytes.Buffer{}
	s, err := NewSPI(spitest.NewRecordRaw(&buf), 2, 0)
	require.NoError(t, err)

	require.NoError(t, s.Write([]byte{0xFF, 0, 0, 0, 0, 0xFF}))
	assert.Greater(t, buf.Len(), 6, "each data bit is expanded on the wire")

	assert.Error(t, s.Write([]byte{1, 2, 3}))

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Write(make([]byte, 6)), ErrClosed)
	assert.NoError(t, s.Close())
}
