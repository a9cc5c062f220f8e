package python

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// The harness reports its result on the guest's real stderr as
// \x00CODEPIT:{json}\x00 so it cannot be confused with program output.
const (
	envelopePrefix = "\x00CODEPIT:"
	envelopeSuffix = "\x00"
)

const (
	maxRawStderr = 64 << 10
	maxEnvelope  = 16 << 20
)

var errEnvelopeTooLarge = errors.New("result envelope too large")

// Envelope is the {output, error} pair assembled inside the guest.
type Envelope struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// envelopeWriter intercepts guest stderr. Framed envelopes are decoded;
// anything else is kept as raw stderr, e.g. interpreter start-up failures.
type envelopeWriter struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	raw      bytes.Buffer
	envelope *Envelope
	err      error
	// skipping drops an oversized frame up to its terminator
	skipping bool
}

func (w *envelopeWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.skipping {
		end := bytes.Index(data, []byte(envelopeSuffix))
		if end == -1 {
			return len(data), nil
		}
		w.skipping = false
		w.buf.Write(data[end+len(envelopeSuffix):])
	} else {
		w.buf.Write(data)
	}

	for {
		content := w.buf.String()
		startIdx := strings.Index(content, envelopePrefix)
		if startIdx == -1 {
			// keep a possible partial prefix for the next write
			keep := partialPrefix(content)
			w.keepRaw(content[:len(content)-keep])
			w.buf.Reset()
			w.buf.WriteString(content[len(content)-keep:])
			break
		}

		w.keepRaw(content[:startIdx])

		body := content[startIdx+len(envelopePrefix):]
		endIdx := strings.Index(body, envelopeSuffix)
		if endIdx == -1 {
			w.buf.Reset()
			if len(body) > maxEnvelope {
				w.err = errEnvelopeTooLarge
				w.skipping = true
				break
			}
			w.buf.WriteString(content[startIdx:])
			break
		}

		w.buf.Reset()
		w.buf.WriteString(body[endIdx+len(envelopeSuffix):])

		var env Envelope
		if err := json.Unmarshal([]byte(body[:endIdx]), &env); err != nil {
			w.err = fmt.Errorf("decode result envelope: %w", err)
			continue
		}
		w.envelope = &env
	}

	return len(data), nil
}

func (w *envelopeWriter) keepRaw(s string) {
	if room := maxRawStderr - w.raw.Len(); room > 0 {
		if len(s) > room {
			s = s[:room]
		}
		w.raw.WriteString(s)
	}
}

// Envelope returns the decoded envelope, if the guest sent one.
func (w *envelopeWriter) Envelope() (*Envelope, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.envelope, w.err
}

// Stderr returns guest stderr that was not part of an envelope.
func (w *envelopeWriter) Stderr() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.raw.String() + w.buf.String()
}

// partialPrefix returns how many trailing bytes of s could start a frame.
func partialPrefix(s string) int {
	for n := min(len(s), len(envelopePrefix)-1); n > 0; n-- {
		if strings.HasPrefix(envelopePrefix, s[len(s)-n:]) {
			return n
		}
	}
	return 0
}
