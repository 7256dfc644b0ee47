// This file is part of gbsdiff.
//
// gbsdiff is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gbsdiff is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gbsdiff.  If not, see <https://www.gnu.org/licenses/>.

// Package wavwriter allows writing of audio data to disk as a WAV file. Audio
// is written as it is received so long renderings do not accumulate in
// memory.
package wavwriter

import (
	"errors"
	"fmt"

	"gbsdiff/logger"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

const (
	bitDepth    = 16
	numChannels = 1

	// PCM
	audioFormat = 1
)

// WavWriter implements the synth.AudioMixer interface.
type WavWriter struct {
	filename string
	file     afero.File
	enc      *wav.Encoder
	buffer   *audio.IntBuffer
	samples  int
}

// New is the preferred method of initialisation for the WavWriter type.
func New(fs afero.Fs, filename string, sampleRate int) (*WavWriter, error) {
	f, err := fs.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("wavwriter: %w", err)
	}

	aw := &WavWriter{
		filename: filename,
		file:     f,
		enc:      wav.NewEncoder(f, sampleRate, bitDepth, numChannels, audioFormat),
		buffer: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}

	return aw, nil
}

// SetAudio implements the synth.AudioMixer interface.
func (aw *WavWriter) SetAudio(samples []int16) error {
	aw.buffer.Data = aw.buffer.Data[:0]
	for _, s := range samples {
		aw.buffer.Data = append(aw.buffer.Data, int(s))
	}

	err := aw.enc.Write(aw.buffer)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	aw.samples += len(samples)

	return nil
}

// EndMixing implements the synth.AudioMixer interface. The WAV file is
// completed and closed.
func (aw *WavWriter) EndMixing() error {
	err := errors.Join(aw.enc.Close(), aw.file.Close())
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}

	logger.Logf(logger.Allow, "wavwriter", "%d samples written to %s", aw.samples, aw.filename)

	return nil
}
