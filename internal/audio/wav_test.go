package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV_SizeAndHeader(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		sampleRate int
	}{
		{"empty", 0, 16000},
		{"one sample", 1, 16000},
		{"one second", 16000, 16000},
		{"cd rate", 441, 44100},
		{"odd rate", 7, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]int16, tt.n)
			for i := range samples {
				samples[i] = int16(i*37 - 1000)
			}

			data := EncodeWAV(samples, tt.sampleRate)
			require.Len(t, data, 44+2*tt.n)

			h, err := ParseHeader(data)
			require.NoError(t, err)
			assert.Equal(t, uint32(tt.sampleRate*2), h.ByteRate)
			assert.Equal(t, uint16(2), h.BlockAlign)
			assert.Equal(t, uint16(16), h.BitsPerSample)
			assert.Equal(t, uint32(2*tt.n), h.Subchunk2Size)
			assert.Equal(t, uint32(36+2*tt.n), h.ChunkSize)
			assert.Equal(t, uint16(1), h.AudioFormat)
			assert.Equal(t, uint16(1), h.NumChannels)
			assert.Equal(t, uint32(tt.sampleRate), h.SampleRate)
		})
	}
}

func TestEncodeWAV_LittleEndianSamples(t *testing.T) {
	data := EncodeWAV([]int16{0x0102, -2}, 16000)

	assert.Equal(t, []byte{0x02, 0x01, 0xFE, 0xFF}, data[44:])
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, "data", string(data[36:40]))
}

func TestDecodeWAV_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1234}
	h, got, err := DecodeWAV(EncodeWAV(samples, 22050))
	require.NoError(t, err)
	assert.Equal(t, samples, got)
	assert.Equal(t, uint32(22050), h.SampleRate)
}

func TestParseHeader_Rejects(t *testing.T) {
	_, err := ParseHeader([]byte("RIFF"))
	assert.True(t, errors.Is(err, ErrNotWAV))

	data := EncodeWAV([]int16{1}, 16000)
	copy(data[8:12], "AVI ")
	_, err = ParseHeader(data)
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestDecodeWAV_RejectsStereo(t *testing.T) {
	data := EncodeWAV([]int16{1, 2}, 16000)
	data[22] = 2

	_, _, err := DecodeWAV(data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDuration(t *testing.T) {
	assert.InDelta(t, 1.5, Duration(24000, 16000), 1e-9)
	assert.Zero(t, Duration(10, 0))
}
