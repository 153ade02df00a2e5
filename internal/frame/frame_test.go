package frame_test

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/frame"
)

func TestRoundTripLaw(t *testing.T) {
	cases := []frame.Frame{
		frame.Ack,
		frame.Nack,
		frame.Busy,
		frame.New(frame.NewField("1"), frame.NewField("1"), frame.NewField("7806914")),
		frame.New(frame.NewField("").WithParams("4"), frame.NewField("").WithParams("1"),
			frame.NewField("20"), frame.NewField("0"), frame.NewField("0320"), frame.NewField("1")),
	}
	for _, f := range cases {
		out := frame.Serialize(f)
		got, err := frame.Parse(out)
		require.NoError(t, err)
		if diff := deep.Equal(f, got); diff != nil {
			t.Errorf("round-trip mismatch for %q: %v", out, diff)
		}
	}
}

func TestParseExtendedFrame(t *testing.T) {
	f, err := frame.Parse([]byte("*#4*#1*20*0*0320*1##"))
	require.NoError(t, err)
	require.Len(t, f.Fields, 6)

	assert.Equal(t, "", f.Fields[0].Value)
	assert.Equal(t, []frame.Parameter{"4"}, f.Fields[0].Params)

	assert.Equal(t, "", f.Fields[1].Value)
	assert.Equal(t, []frame.Parameter{"1"}, f.Fields[1].Params)

	assert.Equal(t, "20", f.Fields[2].Value)
	assert.Equal(t, "0", f.Fields[3].Value)
	assert.Equal(t, "0320", f.Fields[4].Value)
	assert.Equal(t, "1", f.Fields[5].Value)

	assert.Equal(t, []byte("*#4*#1*20*0*0320*1##"), frame.Serialize(f))
}

func TestParseRejectsMissingSentinels(t *testing.T) {
	_, err := frame.Parse([]byte("1*1*7806914##"))
	assert.ErrorIs(t, err, frame.ErrMalformedFrame)

	_, err = frame.Parse([]byte("*1*1*7806914#"))
	assert.ErrorIs(t, err, frame.ErrMalformedFrame)
}

func TestParseRejectsNonDigits(t *testing.T) {
	_, err := frame.Parse([]byte("*1*a*7806914##"))
	assert.ErrorIs(t, err, frame.ErrMalformedFrame)
}

func TestParseRejectsOversizedFrame(t *testing.T) {
	huge := make([]byte, frame.MaxFrameSize+10)
	for i := range huge {
		huge[i] = '1'
	}
	huge[0] = '*'
	huge[len(huge)-2] = '#'
	huge[len(huge)-1] = '#'
	_, err := frame.Parse(huge)
	assert.ErrorIs(t, err, frame.ErrMalformedFrame)
}

func TestExtractorYieldsFramesInOrder(t *testing.T) {
	e := frame.NewExtractor()
	e.Feed([]byte("  \x00*#*1##\x00*#*6##*1*1*7806914##"))

	var got []frame.Frame
	for {
		f, ok, err := e.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, f)
	}
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(frame.Ack))
	assert.True(t, got[1].Equal(frame.Busy))
	assert.Equal(t, "*1*1*7806914##", got[2].String())
}

func TestExtractorPreservesPartialSuffix(t *testing.T) {
	e := frame.NewExtractor()
	e.Feed([]byte("*#*1##*1*1*78"))

	f, ok, err := e.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, f.Equal(frame.Ack))

	_, ok, err = e.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	e.Feed([]byte("06914##"))
	f, ok, err = e.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "*1*1*7806914##", f.String())
}
