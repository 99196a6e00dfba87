package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the length of the canonical PCM WAV header.
const HeaderSize = 44

// DefaultSampleRate is the capture rate expected by the processing backend.
const DefaultSampleRate = 16000

const (
	formatPCM     = 1
	monoChannels  = 1
	bitsPerSample = 16
	bytesPerFrame = monoChannels * bitsPerSample / 8
)

var (
	// ErrNotWAV is returned when the RIFF/WAVE markers are missing.
	ErrNotWAV = errors.New("not a RIFF/WAVE container")
	// ErrUnsupportedFormat is returned for anything other than 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Header holds the fields of the canonical 44-byte WAV header
type Header struct {
	ChunkSize     uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2Size uint32
}

// EncodeWAV builds a mono 16-bit PCM WAV container: a 44-byte header followed by
// the samples in little-endian order. The result is always 44+2N bytes.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := uint32(len(samples) * bytesPerFrame)
	buf := make([]byte, HeaderSize+int(dataSize))
	le := binary.LittleEndian

	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], 36+dataSize)
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], formatPCM)
	le.PutUint16(buf[22:24], monoChannels)
	le.PutUint32(buf[24:28], uint32(sampleRate))
	le.PutUint32(buf[28:32], uint32(sampleRate*bytesPerFrame))
	le.PutUint16(buf[32:34], bytesPerFrame)
	le.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], dataSize)

	for i, s := range samples {
		le.PutUint16(buf[HeaderSize+i*2:], uint16(s))
	}
	return buf
}

// ParseHeader reads the header fields back out of a container
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrNotWAV, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" ||
		string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Header{}, ErrNotWAV
	}

	le := binary.LittleEndian
	return Header{
		ChunkSize:     le.Uint32(data[4:8]),
		AudioFormat:   le.Uint16(data[20:22]),
		NumChannels:   le.Uint16(data[22:24]),
		SampleRate:    le.Uint32(data[24:28]),
		ByteRate:      le.Uint32(data[28:32]),
		BlockAlign:    le.Uint16(data[32:34]),
		BitsPerSample: le.Uint16(data[34:36]),
		Subchunk2Size: le.Uint32(data[40:44]),
	}, nil
}

// DecodeWAV returns the header and samples of a mono 16-bit PCM container
func DecodeWAV(data []byte) (Header, []int16, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	if h.AudioFormat != formatPCM || h.BitsPerSample != bitsPerSample || h.NumChannels != monoChannels {
		return Header{}, nil, fmt.Errorf("%w: format=%d channels=%d bits=%d",
			ErrUnsupportedFormat, h.AudioFormat, h.NumChannels, h.BitsPerSample)
	}

	payload := data[HeaderSize:]
	if int(h.Subchunk2Size) < len(payload) {
		payload = payload[:h.Subchunk2Size]
	}

	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return h, samples, nil
}

// Duration returns the playback length of n samples at the given rate in seconds.
func Duration(n, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n) / float64(sampleRate)
}
