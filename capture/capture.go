// Package capture records packed PWM words so a run can be inspected off
// target: as rows of bits, as per-channel duty counts, or as a WAV file with
// one audio channel per PWM channel (open it in any audio editor to see the
// waveforms lined up).
package capture

import (
	"errors"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
	wavHigh     = 1<<(wavBitDepth-1) - 1
	wavLow      = -wavHigh
)

var (
	ErrChannels = errors.New("capture: channel count must be 1..32")
	ErrEmpty    = errors.New("capture: nothing recorded")
)

// Recorder collects words up to a limit. It is safe for one writer and
// concurrent readers.
type Recorder struct {
	mu       sync.Mutex
	channels int
	limit    int
	words    []uint32
	dropped  int
}

// NewRecorder returns a recorder for channels outputs keeping at most limit
// words (0 = unbounded).
func NewRecorder(channels, limit int) (*Recorder, error) {
	if channels < 1 || channels > 32 {
		return nil, ErrChannels
	}
	r := &Recorder{channels: channels, limit: limit}
	if limit > 0 {
		r.words = make([]uint32, 0, limit)
	}
	return r, nil
}

// Emit records one tick. Once the limit is reached further words are
// counted as dropped.
func (r *Recorder) Emit(word uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.words) >= r.limit {
		r.dropped++
		return nil
	}
	r.words = append(r.words, word)
	return nil
}

func (r *Recorder) Channels() int { return r.channels }

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.words)
}

func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Words returns a copy of everything recorded.
func (r *Recorder) Words() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint32(nil), r.words...)
}

// Reset discards the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.words = r.words[:0]
	r.dropped = 0
	r.mu.Unlock()
}

// Duty returns how many recorded ticks had channel ch on, and the total.
func (r *Recorder) Duty(ch int) (on, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mask := uint32(1) << uint(ch)
	for _, w := range r.words {
		if w&mask != 0 {
			on++
		}
	}
	return on, len(r.words)
}

// FormatBits renders the low n bits of word, channel 0 first.
func FormatBits(word uint32, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0' + byte((word>>uint(i))&1)
	}
	return string(b)
}

// WriteRows writes one FormatBits line per recorded word.
func (r *Recorder) WriteRows(w io.Writer) error {
	for _, word := range r.Words() {
		if _, err := io.WriteString(w, FormatBits(word, r.channels)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteWAV encodes the recording as 16-bit PCM, one WAV channel per PWM
// channel, one frame per tick. Off is full negative scale, on full positive.
func (r *Recorder) WriteWAV(w io.WriteSeeker, sampleRate int) error {
	words := r.Words()
	if len(words) == 0 {
		return ErrEmpty
	}
	n := r.channels
	data := make([]int, 0, len(words)*n)
	for _, word := range words {
		for ch := 0; ch < n; ch++ {
			if word&(1<<uint(ch)) != 0 {
				data = append(data, wavHigh)
			} else {
				data = append(data, wavLow)
			}
		}
	}
	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, n, wavPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: n, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
