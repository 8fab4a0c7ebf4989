package store_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/cost"
	"github.com/katalvlaran/rxnpath/network"
	"github.com/katalvlaran/rxnpath/store"
)

var (
	bao  = chem.MustEntry("BaO", -5.7)
	tio2 = chem.MustEntry("TiO2", -9.7)
	bto  = chem.MustEntry("BaTiO3", -16.4)
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func buildNetwork(t *testing.T, entries []chem.Entry, opts ...network.Option) *network.Network {
	t.Helper()
	n, err := network.New(entries, append([]network.Option{network.WithLogger(quiet())}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, n.Build(context.Background(), []chem.Entry{bao, tio2}, []chem.Entry{bto}))
	return n
}

// StoreSuite runs each test against a fresh in-memory store.
type StoreSuite struct {
	suite.Suite
	st *store.Store
}

func (s *StoreSuite) SetupTest() {
	st, err := store.OpenInMemory()
	require.NoError(s.T(), err)
	s.st = st
}

func (s *StoreSuite) TearDownTest() {
	require.NoError(s.T(), s.st.Close())
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestPutGet_RoundTrip() {
	t := s.T()
	ctx := context.Background()
	n := buildNetwork(t, []chem.Entry{bao, tio2, bto})
	snap, err := n.Snapshot()
	require.NoError(t, err)

	rec, err := s.st.Put(ctx, snap)
	require.NoError(t, err)
	assert.Len(t, rec.Fingerprint, 64)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Ba-O-Ti", rec.Chemsys)
	assert.Equal(t, len(snap.Nodes), rec.Nodes)
	assert.Positive(t, rec.StoredBytes)

	got, gotRec, err := s.st.Get(ctx, rec.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.Equal(t, rec.ID, gotRec.ID)
}

func (s *StoreSuite) TestSaveLoad_Restores() {
	t := s.T()
	ctx := context.Background()
	n := buildNetwork(t, []chem.Entry{bao, tio2, bto})

	rec, err := s.st.Save(ctx, n)
	require.NoError(t, err)

	loaded, err := s.st.Load(ctx, rec.Fingerprint, network.WithLogger(quiet()))
	require.NoError(t, err)
	res, err := loaded.FindKShortestPaths(ctx, 1)
	require.NoError(t, err)
	require.Len(t, res.Pathways, 1)
	assert.Equal(t, "BaO + TiO2 -> BaTiO3", res.Pathways[0].Steps()[0].Reaction.String())
}

func TestFingerprint(t *testing.T) {
	a, err := buildNetwork(t, []chem.Entry{bao, tio2, bto}).Snapshot()
	require.NoError(t, err)
	b, err := buildNetwork(t, []chem.Entry{bto, tio2, bao}).Snapshot()
	require.NoError(t, err)
	c, err := buildNetwork(t, []chem.Entry{bao, tio2, bto}, network.WithCostFunction(cost.Bipartite)).Snapshot()
	require.NoError(t, err)

	fa, err := store.Fingerprint(a)
	require.NoError(t, err)
	fb, err := store.Fingerprint(b)
	require.NoError(t, err)
	fc, err := store.Fingerprint(c)
	require.NoError(t, err)

	assert.Equal(t, fa, fb, "entry order is irrelevant")
	assert.NotEqual(t, fa, fc, "cost function changes the graph")

	_, err = store.Fingerprint(nil)
	assert.ErrorIs(t, err, store.ErrNilSnapshot)
}

func (s *StoreSuite) TestPut_ReplacesSameGraph() {
	t := s.T()
	ctx := context.Background()
	n := buildNetwork(t, []chem.Entry{bao, tio2, bto})

	first, err := s.st.Save(ctx, n)
	require.NoError(t, err)
	second, err := s.st.Save(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.ID, second.ID)

	recs, err := s.st.List(ctx, "Ba-O-Ti")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, second.ID, recs[0].ID)
}

func (s *StoreSuite) TestList_ByChemsys() {
	t := s.T()
	ctx := context.Background()
	_, err := s.st.Save(ctx, buildNetwork(t, []chem.Entry{bao, tio2, bto}))
	require.NoError(t, err)
	_, err = s.st.Save(ctx, buildNetwork(t, []chem.Entry{bao, tio2, bto}, network.WithComplexLoopback(false)))
	require.NoError(t, err)

	recs, err := s.st.List(ctx, "Ba-O-Ti")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = s.st.List(ctx, "Ba-O")
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = s.st.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func (s *StoreSuite) TestDelete() {
	t := s.T()
	ctx := context.Background()
	rec, err := s.st.Save(ctx, buildNetwork(t, []chem.Entry{bao, tio2, bto}))
	require.NoError(t, err)

	require.NoError(t, s.st.Delete(ctx, rec.Fingerprint))
	_, _, err = s.st.Get(ctx, rec.Fingerprint)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.st.Delete(ctx, rec.Fingerprint), store.ErrNotFound)

	recs, err := s.st.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpen_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := store.Open(store.Config{Dir: dir, Logger: quiet()})
	require.NoError(t, err)
	rec, err := s.Save(ctx, buildNetwork(t, []chem.Entry{bao, tio2, bto}))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.Open(store.Config{Dir: dir, Logger: quiet()})
	require.NoError(t, err)
	defer s.Close()
	_, got, err := s.Get(ctx, rec.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = store.Open(store.Config{})
	assert.ErrorIs(t, err, store.ErrNoPath)
}

func (s *StoreSuite) TestCanceledContext() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.st.Put(ctx, &network.Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = s.st.Get(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
