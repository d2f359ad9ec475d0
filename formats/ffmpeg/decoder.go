// SPDX-License-Identifier: EPL-2.0

package ffmpeg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/utils"
)

var (
	// ErrNotFound is returned when no ffmpeg binary is available.
	ErrNotFound = errors.New("ffmpeg not found")

	// ErrDecodeFailed wraps a non-zero ffmpeg exit.
	ErrDecodeFailed = errors.New("ffmpeg decode failed")
)

const (
	defaultRate     = 44100
	defaultChannels = 2
)

// Available reports the resolved ffmpeg path, if any.
func Available() (string, bool) {
	path, err := exec.LookPath("ffmpeg")
	return path, err == nil
}

// Decoder runs ffmpeg as a child process and streams signed 16-bit PCM
// from its stdout. A zero value uses the ffmpeg found in PATH at 44.1 kHz
// stereo.
type Decoder struct {
	Binary     string
	SampleRate int
	Channels   int
}

func (d Decoder) Decode(r io.Reader) (audio.Source, error) {
	bin := d.Binary
	if bin == "" {
		var ok bool
		if bin, ok = Available(); !ok {
			return nil, ErrNotFound
		}
	}

	rate := d.SampleRate
	if rate <= 0 {
		rate = defaultRate
	}
	channels := d.Channels
	if channels <= 0 {
		channels = defaultChannels
	}

	args := []string{"-i", "pipe:0"}
	if f, ok := r.(*os.File); ok && f.Name() != "" {
		args = []string{"-nostdin", "-i", f.Name()}
	}
	args = append(args,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "error",
		"pipe:1",
	)

	cmd := exec.Command(bin, args...)
	if args[0] != "-nostdin" {
		cmd.Stdin = r
	}

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	return &source{
		cmd:        cmd,
		out:        out,
		stderr:     stderr,
		sampleRate: rate,
		channels:   channels,
		buf:        make([]byte, 8192),
	}, nil
}

type source struct {
	cmd        *exec.Cmd
	out        io.ReadCloser
	stderr     *bytes.Buffer
	sampleRate int
	channels   int
	buf        []byte

	waitOnce sync.Once
	waitErr  error
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) wait() error {
	s.waitOnce.Do(func() {
		if err := s.cmd.Wait(); err != nil {
			msg := bytes.TrimSpace(s.stderr.Bytes())
			s.waitErr = fmt.Errorf("%w: %w: %s", ErrDecodeFailed, err, msg)
		}
	})
	return s.waitErr
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	frameBytes := 2 * s.channels
	want := (len(dst) / s.channels) * frameBytes
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	s.buf = s.buf[:want]

	n, err := io.ReadFull(s.out, s.buf)
	samples := (n - n%frameBytes) / 2
	for i := range samples {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = utils.Int16ToFloat32(v)
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if werr := s.wait(); werr != nil {
			return samples, werr
		}
		if samples == 0 {
			return 0, io.EOF
		}
		return samples, nil
	case err != nil:
		return samples, fmt.Errorf("ffmpeg read: %w", err)
	}
	return samples, nil
}

// Close stops ffmpeg if it is still running.
func (s *source) Close() error {
	s.out.Close()
	if s.cmd.ProcessState == nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}
