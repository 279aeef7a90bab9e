// Package audio converts between float32 waveforms and 16-bit PCM byte
// streams and provides the small DSP helpers the synthesis pipeline needs.
// All conversions are pure and stateless.
package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// Output format of the acoustic model.
const (
	SampleRate    = 24000
	Channels      = 1
	BitsPerSample = 16
)

// FloatToPCM16 converts float32 samples to little-endian 16-bit PCM bytes.
// Samples are clamped to [-1, 1] before scaling.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(clamped*32767)))
	}

	return out
}

// PCM16ToFloat converts little-endian 16-bit PCM bytes to float32 samples in
// [-1, 1]. A trailing odd byte is ignored.
func PCM16ToFloat(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32767.0
	}

	return out
}

// WAVHeader builds a 44-byte RIFF/WAVE header for a PCM stream of dataSize
// payload bytes.
func WAVHeader(dataSize, sampleRate, channels, bitsPerSample int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	riffSize := 4 + (8 + 16) + (8 + dataSize)

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(riffSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(bitsPerSample))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	return hdr[:]
}

// WriteWAVHeaderStreaming writes a header for a stream of unknown length.
// Both the RIFF chunk size and the data sub-chunk size are set to
// 0xFFFFFFFF, the conventional marker for streaming output.
func WriteWAVHeaderStreaming(w io.Writer) (int, error) {
	hdr := WAVHeader(0, SampleRate, Channels, BitsPerSample)
	binary.LittleEndian.PutUint32(hdr[4:8], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(hdr[40:44], 0xFFFFFFFF)

	return w.Write(hdr)
}

// WritePCM16Samples encodes samples as 16-bit PCM and writes them to w.
func WritePCM16Samples(w io.Writer, samples []float32) (int, error) {
	return w.Write(FloatToPCM16(samples))
}
