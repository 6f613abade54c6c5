/*
RTLFOB recovers bitstreams from I/Q captures of ISM band key fob transmissions
and writes a Flipper SubGhz RAW replay file from the first button press.

A capture is read from a two channel wav file (in-phase left, quadrature right)
or recorded live from an rtl_tcp server. Each burst of energy in the capture is
treated as one button press and decoded independently: mixed to zero offset,
decimated to ten samples per symbol, FSK demodulated, low-pass filtered and
sampled by a proportional timing recovery loop. Payloads from every press are
then compared to separate fixed bits from rolling ones.

Command-line Flags:

	--input, -i=""

Two channel wav capture to decode. 8-bit and 16-bit PCM and 32-bit float are
accepted. When empty, samples are recorded from rtl_tcp instead.

	--output, -o="fob.sub"

Replay file to write. The file has the following structure:

	Filetype: Flipper SubGhz Key File
	Protocol: RAW
	Frequency: 433920000
	Preset: FuriHalSubGhzPresetASK_650
	Data: 208 -416 624 -208 ...

Positive durations are carrier on, negative carrier off, in microseconds.

	--config=""

Yaml configuration file. Keys mirror the flags below and are grouped as
follows; any key may be omitted:

	decode:
	  samplerate: 2000000
	  baudrate: 4800
	  freqoffset: 0
	  minpulse: 0
	burst:
	  threshold: 5
	  minlength: 0
	  bins: 100
	guard: 0
	mode: bits
	frequency: 433920000
	preset: FuriHalSubGhzPresetASK_650
	payload:
	  preamble: ""
	  width: 64
	  manchester: false
	  source: sampled
	  tedelta: 150
	  layout: ""
	workers: 1
	layouts:
	  - name: custom
	    width: 32
	    fields:
	      - {name: id, start: 0, length: 24}
	      - {name: button, start: 24, length: 8}

Flags given on the command line override the file. Every flag may also be set
by an environment variable named RTLFOB_ followed by the flag name in upper
case, for example RTLFOB_BAUDRATE=2400.

	--layouts=""

Yaml list of additional field layouts, in the same form as the config file's
layouts key.

	--samplerate=2e+06, --baudrate=4800, --freqoffset=0

Radio parameters of the capture. The decimation factor is the sample rate over
ten times the baud rate, at least 1. A baud rate too high to decimate, or a
filter cutoff beyond nyquist, is logged as a warning and decoding continues.

	--threshold=5, --minlength=0, --guard=0

Burst detection. The noise floor is the most common envelope amplitude and a
burst is any run above threshold times the floor longer than minlength samples.
Guard samples either side of each burst are decoded with it.

	--mode="bits"

Source of the replay pulses: bits emits one pulse per sampled symbol,
zerocrossing the intervals between sign changes of the demodulated signal.

	--preamble="", --width=64, --manchester=false, --source="sampled"

Payload extraction. With a preamble, the width bits after each occurrence form
a frame and the most repeated frame is the press's payload. Manchester decoding
is kept only if it yields exactly width bits. The pwm source decodes
short-long and long-short pulse pairs instead of sampled symbols.

	--layout=""

Field layout used to split payloads. When empty, the first registered layout
matching the payload width is used. The built in keeloq layouts are heuristic
and not verified against any protocol.

	--format="plain"

Report format: plain, csv, json or xml. Plain and csv print one record per
press, json and xml the whole result including the analysis.

	--server="127.0.0.1:1234", --centerfreq=0, --duration=5s

Live recording. The receiver is tuned to centerfreq, or the replay frequency
when zero, and records for duration or until interrupted.
*/
package main
