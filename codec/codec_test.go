package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manifest struct {
	Kind    string    `json:"kind"`
	Records int       `json:"records"`
	Dims    []int     `json:"dims,omitempty"`
	Weights []float64 `json:"weights"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	in := manifest{Kind: "z_order", Records: 42, Dims: []int{1, 2}, Weights: []float64{0.5, 1.25}}

	std := MustMarshal(JSON{}, in)
	fast := MustMarshal(GoJSON{}, in)
	assert.JSONEq(t, string(std), string(fast))

	var out manifest
	require.NoError(t, GoJSON{}.Unmarshal(std, &out))
	assert.Equal(t, in, out)
}

func TestMustMarshalPanics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(nil, make(chan int)) })
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, nil, manifest{Kind: "knn", Records: 3}))
	require.NoError(t, WriteLine(&buf, JSON{}, manifest{Kind: "identity"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"kind":"knn","records":3,"weights":null}`, lines[0])
	assert.JSONEq(t, `{"kind":"identity","records":0,"weights":null}`, lines[1])

	err := WriteLine(&buf, nil, make(chan int))
	assert.ErrorContains(t, err, "go-json")
}
