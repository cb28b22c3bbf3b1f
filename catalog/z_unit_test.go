package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/wdmlab/spec"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"a.yaml":    {Data: []byte("name: Alpha\nid: 2\nparams: {a: 1, t0: 0.2, b: 0.5, d: 0}\n")},
		"b.json":    {Data: []byte(`{"name":"beta","id":1,"params":{"a":1,"t0":0.1,"b":0.4,"d":0.5}}`)},
		"readme.md": {Data: []byte("ignored")},
	}
}

func TestDiscoverAndRegister(t *testing.T) {
	c, err := New(testFS())
	require.NoError(t, err)

	ents, err := c.Discover()
	require.NoError(t, err)
	require.Len(t, ents, 2)
	require.Equal(t, "a.yaml", ents[0].ConfigName)

	require.NoError(t, c.Register(ents...))
	require.Equal(t, []spec.PID{1, 2}, c.IDs())

	e, ok := c.GetByName("  ALPHA ")
	require.True(t, ok)
	require.Equal(t, spec.PID(2), e.ID)

	ps, err := c.PresetByID(1)
	require.NoError(t, err)
	require.Equal(t, 0.5, ps.Params.D)

	sums, err := c.Summaries()
	require.NoError(t, err)
	require.Len(t, sums, 2)
	require.Equal(t, "beta", sums[0].Name)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c, err := New(testFS())
	require.NoError(t, err)
	require.NoError(t, c.Register(Entry{ID: 1, Name: "x", ConfigName: "a.yaml"}))

	require.ErrorIs(t, c.Register(Entry{ID: 1, Name: "y", ConfigName: "b.json"}), ErrDupID)
	require.ErrorIs(t, c.Register(Entry{ID: 9, Name: "X", ConfigName: "b.json"}), ErrDupName)
	require.Error(t, c.Register(Entry{ID: 9, Name: "z", ConfigName: "a.yaml"}))
	require.Error(t, c.Register(Entry{ID: 9, Name: "z", ConfigName: "missing.yaml"}))
	require.Error(t, c.Register(Entry{ID: 9, Name: "z", ConfigName: "../a.yaml"}))

	c.Freeze()
	require.True(t, c.IsFrozen())
	require.Error(t, c.Register(Entry{ID: 9, Name: "z", ConfigName: "b.json"}))
}

func TestMultiFSMustBeFlat(t *testing.T) {
	_, err := New(fstest.MapFS{"sub/a.yaml": {Data: []byte("name: a\nid: 1\n")}})
	require.Error(t, err)

	_, err = New(testFS(), fstest.MapFS{"a.yaml": {Data: []byte("name: c\nid: 3\n")}})
	require.Error(t, err)

	_, err = New()
	require.Error(t, err)
}

func TestLookupMissing(t *testing.T) {
	c, err := New(testFS())
	require.NoError(t, err)
	_, err = c.PresetByID(42)
	require.Error(t, err)
	_, err = c.PresetByName("nope")
	require.Error(t, err)
}
