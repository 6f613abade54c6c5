// Package replay reads and writes Flipper SubGhz RAW key files.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/parse"
)

const (
	Filetype = "Flipper SubGhz Key File"
	Protocol = "RAW"

	DefaultFrequency = 433920000
	DefaultPreset    = "FuriHalSubGhzPresetASK_650"
)

// A File is a raw replay: carrier frequency, modulation preset and the
// pulse timings in microseconds, positive for carrier on.
type File struct {
	Frequency uint32
	Preset    string
	Data      parse.PulseTrain
}

// Encode writes the file's five lines to w.
func (f File) Encode(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Filetype: %s\nProtocol: %s\nFrequency: %d\nPreset: %s\nData: %s\n",
		Filetype, Protocol, f.Frequency, f.Preset, f.Data,
	)
	return err
}

// Write creates or truncates path and encodes f into it.
func Write(path string, f File) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating replay file")
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "closing %s", path)
		}
	}()

	w := bufio.NewWriter(out)
	if err := f.Encode(w); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Decode reads a file written by Encode. Unknown keys are ignored and
// repeated Data lines are concatenated.
func Decode(r io.Reader) (File, error) {
	var f File
	seen := map[string]bool{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		key, value, found := strings.Cut(text, ":")
		if !found {
			return File{}, errors.Errorf("line %d: missing separator", line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		seen[key] = true

		switch key {
		case "Filetype":
			if value != Filetype {
				return File{}, errors.Errorf("line %d: unexpected filetype %q", line, value)
			}
		case "Protocol":
			if value != Protocol {
				return File{}, errors.Errorf("line %d: unsupported protocol %q", line, value)
			}
		case "Frequency":
			freq, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return File{}, errors.Wrapf(err, "line %d: frequency", line)
			}
			f.Frequency = uint32(freq)
		case "Preset":
			f.Preset = value
		case "Data", "RAW_Data":
			data, err := ParseData(value)
			if err != nil {
				return File{}, errors.Wrapf(err, "line %d", line)
			}
			f.Data = append(f.Data, data...)
		}
	}
	if err := scanner.Err(); err != nil {
		return File{}, errors.Wrap(err, "reading replay file")
	}

	for _, key := range []string{"Filetype", "Protocol", "Frequency"} {
		if !seen[key] {
			return File{}, errors.Errorf("missing %s", key)
		}
	}

	return f, nil
}

// ParseData reads the value of a Data line.
func ParseData(value string) (parse.PulseTrain, error) {
	return parse.ParsePulseTrain(value)
}
