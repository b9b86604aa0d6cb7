package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WriteWAV writes mono 16-bit PCM samples to a RIFF/WAVE file
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	return f.Sync()
}

// EncodeWAV encodes mono 16-bit PCM samples as a RIFF/WAVE stream
func EncodeWAV(w io.Writer, samples []int16, sampleRate int) error {
	dataLen := uint32(len(samples) * 2)
	byteRate := uint32(sampleRate * 2) // mono, 16-bit

	// RIFF header
	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(36)+dataLen); err != nil {
		return err
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return err
	}

	// fmt chunk (PCM, mono, 16-bit)
	if _, err := w.Write([]byte("fmt ")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(1)); err != nil { // PCM format
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(1)); err != nil { // channels
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(sampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byteRate); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(2)); err != nil { // block align
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(16)); err != nil { // bits per sample
		return err
	}

	// data chunk
	if _, err := w.Write([]byte("data")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataLen); err != nil {
		return err
	}
	if _, err := w.Write(EncodePCM16(samples)); err != nil {
		return err
	}

	return nil
}

// ReadWAV reads a mono 16-bit PCM RIFF/WAVE file and returns its samples and
// sample rate. Stereo input is downmixed by taking the first channel.
func ReadWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()

	return DecodeWAV(f)
}

// DecodeWAV decodes a 16-bit PCM RIFF/WAVE stream
func DecodeWAV(r io.Reader) ([]int16, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		data          []byte
	)

	// Walk chunks until the data chunk is found
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, 0, fmt.Errorf("read chunk header: %w", err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkLen := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			fmtChunk := make([]byte, chunkLen)
			if _, err := io.ReadFull(r, fmtChunk); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(fmtChunk[0:2])
			if format != 1 {
				return nil, 0, fmt.Errorf("unsupported wav format %d (only PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))

		case "data":
			data = make([]byte, chunkLen)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, 0, fmt.Errorf("read data chunk: %w", err)
			}

		default:
			// Skip unknown chunks (LIST, fact, etc.)
			if _, err := io.CopyN(io.Discard, r, int64(chunkLen)); err != nil {
				return nil, 0, fmt.Errorf("skip chunk %q: %w", chunkID, err)
			}
		}

		if data != nil && sampleRate != 0 {
			break
		}
	}

	if sampleRate == 0 {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if data == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d (only 16-bit)", bitsPerSample)
	}

	samples, err := DecodePCM16(data)
	if err != nil {
		return nil, 0, err
	}

	// Downmix by taking the first channel
	if channels > 1 {
		mono := make([]int16, 0, len(samples)/channels)
		for i := 0; i < len(samples); i += channels {
			mono = append(mono, samples[i])
		}
		samples = mono
	}

	return samples, sampleRate, nil
}
