package webvtt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papareo/pkg/webvtt"
)

func TestValidate(t *testing.T) {
	assert := require.New(t)

	assert.NoError(webvtt.Validate(strings.NewReader("WEBVTT\n")))
	assert.NoError(webvtt.Validate(strings.NewReader("WEBVTT - transcription\n\n00:00.000 --> 00:01.000\nhi\n")))
	assert.NoError(webvtt.Validate(strings.NewReader("\ufeffWEBVTT\n")))

	assert.ErrorIs(webvtt.Validate(strings.NewReader("")), webvtt.ErrInvalidHeader)
	assert.ErrorIs(webvtt.Validate(strings.NewReader("WEBVTTX\n")), webvtt.ErrInvalidHeader)
	assert.ErrorIs(webvtt.Validate(strings.NewReader("1\n00:00.000 --> 00:01.000\nhi\n")), webvtt.ErrInvalidHeader)
}

func TestParse(t *testing.T) {
	assert := require.New(t)

	const file = `WEBVTT

NOTE generated transcript

1
00:00:00.000 --> 00:00:02.500
Tēnā koe

2
00:00:02.500 --> 00:01:05.000 align:start
Kei te pēhea koe?
E pai ana ahau.
`

	cues, err := webvtt.Parse(strings.NewReader(file))
	assert.NoError(err)
	assert.Len(cues, 2)

	assert.Equal(time.Duration(0), cues[0].Start)
	assert.Equal(2500*time.Millisecond, cues[0].End)
	assert.Equal("Tēnā koe", cues[0].Text)

	assert.Equal(2500*time.Millisecond, cues[1].Start)
	assert.Equal(time.Minute+5*time.Second, cues[1].End)
	assert.Equal("Kei te pēhea koe?\nE pai ana ahau.", cues[1].Text)
}

func TestParseShortTimestamps(t *testing.T) {
	assert := require.New(t)

	cues, err := webvtt.Parse(strings.NewReader("WEBVTT\n\n01:02.250 --> 01:04.000\nhi\n"))
	assert.NoError(err)
	assert.Len(cues, 1)
	assert.Equal(time.Minute+2250*time.Millisecond, cues[0].Start)
	assert.Equal(time.Minute+4*time.Second, cues[0].End)
}

func TestParseMalformed(t *testing.T) {
	assert := require.New(t)

	_, err := webvtt.Parse(strings.NewReader("not a vtt file\n"))
	assert.ErrorIs(err, webvtt.ErrInvalidHeader)

	_, err = webvtt.Parse(strings.NewReader("WEBVTT\n\nbogus --> 00:01.000\nhi\n"))
	assert.Error(err)
}
