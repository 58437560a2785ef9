package util

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

// IO Plumbing

// BufferSample decodes the wav file at path into memory, resampling it to
// the engine's sample rate if the file was recorded at a different one.
func BufferSample(path string, rate beep.SampleRate) (*beep.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sample %s", path)
	}

	decoded, format, err := wav.Decode(file)
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "decoding sample %s", path)
	}
	defer decoded.Close()

	var src beep.Streamer = decoded
	if format.SampleRate != rate {
		src = beep.Resample(4, format.SampleRate, rate, decoded)
		format.SampleRate = rate
	}

	buf := beep.NewBuffer(format)
	buf.Append(src)
	return buf, nil
}

func Map[T, U any](mapFunc func(T) U, s []T) (out []U) {
	for _, t := range s {
		out = append(out, mapFunc(t))
	}

	return out
}

// Clamp limits v to the closed range [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

type LogVolume int

const (
	Silent LogVolume = 1 << iota
	Quieter
	Quiet
	Normal
	Loud
	Louder
	Loudest
)

func (lv LogVolume) String() string {
	switch lv {
	case Silent:
		return "Silent"
	case Quieter:
		return "Quieter"
	case Quiet:
		return "Quiet"
	case Normal:
		return "Normal"
	case Loud:
		return "Loud"
	case Louder:
		return "Louder"
	case Loudest:
		return "Loudest"
	default:
		return fmt.Sprintf("%d", lv)
	}
}

// ParseLogVolume reads a volume name as printed by String, ignoring case
func ParseLogVolume(name string) (LogVolume, error) {
	for lv := Silent; lv <= Loudest; lv <<= 1 {
		if strings.EqualFold(lv.String(), name) {
			return lv, nil
		}
	}
	return 0, errors.Errorf("unknown log volume %q", name)
}

// only Loud and above get through until the caller asks for more
var filterBelow = func(lv LogVolume) *LogVolume { return &lv }(Loud)

// FilterBelow sets the log level below which messages will not be printed
func (lv LogVolume) FilterBelow() LogVolume {
	*filterBelow = lv
	return lv
}

// LogToFile sends all log output to the file at path, truncating it. The
// terminal UI uses this so log lines don't tear up the screen.
func LogToFile(path string) (closer func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", path)
	}
	log.SetOutput(f)
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	return func() error {
		log.SetOutput(os.Stderr)
		return f.Close()
	}, nil
}

// Logger is a context-aware logger
type Logger struct {
	prefixes []any
	Volume   LogVolume
}

// Ctx returns a copy of the logger with the given prefix added after all pre-existing prefixes
func (l Logger) Ctx(prefix string) Logger {
	prefixes := make([]any, len(l.prefixes), len(l.prefixes)+1)
	copy(prefixes, l.prefixes)
	return Logger{append(prefixes, prefix+":"), l.Volume}
}

// Vol is like a -v option. A Loud logger will print all messages,
// a Silent one will print none
func (l Logger) Vol(v LogVolume) Logger {
	l.Volume = v
	return l
}

// Enabled reports whether a message logged now would be printed. Use it to
// skip building expensive messages on hot paths.
func (l Logger) Enabled() bool {
	return l.Volume >= *filterBelow
}

// Log shares its interface with log.Println
func (l Logger) Log(msgs ...any) {
	if l.Enabled() {
		prefixes := append([]any{fmt.Sprintf("[%s]", l.Volume)}, l.prefixes...)
		log.Println(append(prefixes, msgs...)...)
	}
}

// Logf is Log with a format string
func (l Logger) Logf(format string, args ...any) {
	if l.Enabled() {
		l.Log(fmt.Sprintf(format, args...))
	}
}
