package asset_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom/asset"
	"showroom/internal/gltftest"
	"showroom/scene"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var errBroken = errors.New("broken file")

// fakeDecode fails for any path ending in "broken.glb".
func fakeDecode(path string) (*scene.Node, error) {
	if filepath.Base(path) == "broken.glb" {
		return nil, errBroken
	}
	return scene.NewNode(filepath.Base(path)), nil
}

func descs(sources ...string) []*asset.Descriptor {
	out := make([]*asset.Descriptor, len(sources))
	for i, s := range sources {
		out[i] = &asset.Descriptor{Name: s, Source: s}
	}
	return out
}

func TestAwaitAllSettlesEveryDescriptor(t *testing.T) {
	l := asset.NewLoader(fakeDecode, asset.WithLogger(quiet), asset.WithAssetRoot("assets/models"))
	ds := descs("lift.glb", "broken.glb", "car.glb")

	results, err := l.AwaitAll(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Same(t, ds[i], r.Descriptor)
		assert.NotEqual(t, asset.Pending, l.State(ds[i].Name))
		assert.Equal(t, r.State(), l.State(ds[i].Name))
	}
	assert.Equal(t, asset.Loaded, results[0].State())
	assert.Equal(t, asset.Failed, results[1].State())
	assert.Equal(t, asset.Loaded, results[2].State())

	var le *asset.LoadError
	require.ErrorAs(t, results[1].Err, &le)
	assert.Equal(t, "broken.glb", le.Descriptor)
	assert.Equal(t, filepath.Join("assets/models", "broken.glb"), le.Source)
	assert.ErrorIs(t, results[1].Err, errBroken)
	assert.Nil(t, results[1].Node)

	pending, loaded, failed := l.Counts()
	assert.Equal(t, [3]int{0, 2, 1}, [3]int{pending, loaded, failed})
}

func TestLoadTwiceIsRejected(t *testing.T) {
	l := asset.NewLoader(fakeDecode, asset.WithLogger(quiet))
	d := &asset.Descriptor{Name: "car", Source: "car.glb"}

	ch, err := l.Load(context.Background(), d)
	require.NoError(t, err)
	r := <-ch
	assert.Equal(t, asset.Loaded, r.State())

	_, err = l.Load(context.Background(), d)
	assert.ErrorIs(t, err, asset.ErrAlreadyIssued)
	assert.Equal(t, asset.Loaded, l.State("car"))
	assert.Equal(t, asset.Unknown, l.State("never"))
}

func TestLoadAllStreamsAndCloses(t *testing.T) {
	release := make(chan struct{})
	decode := func(path string) (*scene.Node, error) {
		if filepath.Base(path) == "slow.glb" {
			<-release
		}
		return fakeDecode(path)
	}
	l := asset.NewLoader(decode, asset.WithLogger(quiet))
	stream := l.LoadAll(context.Background(), descs("slow.glb", "broken.glb", "fast.glb"))

	// The two quick loads arrive while the slow one is still pending.
	got := map[string]asset.LoadState{}
	for i := 0; i < 2; i++ {
		r := <-stream
		got[r.Descriptor.Name] = r.State()
	}
	assert.Equal(t, map[string]asset.LoadState{"broken.glb": asset.Failed, "fast.glb": asset.Loaded}, got)
	assert.Equal(t, asset.Pending, l.State("slow.glb"))

	close(release)
	r, ok := <-stream
	require.True(t, ok)
	assert.Equal(t, "slow.glb", r.Descriptor.Name)
	_, ok = <-stream
	assert.False(t, ok, "stream must close after every load settled")
}

func TestConcurrencyIsBounded(t *testing.T) {
	var running, peak atomic.Int32
	decode := func(path string) (*scene.Node, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return scene.NewNode(path), nil
	}
	l := asset.NewLoader(decode, asset.WithLogger(quiet), asset.WithMaxConcurrent(2))
	_, err := l.AwaitAll(context.Background(), descs("a", "b", "c", "d", "e", "f"))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDecoderPanicBecomesFailure(t *testing.T) {
	l := asset.NewLoader(func(string) (*scene.Node, error) { panic("bad accessor") }, asset.WithLogger(quiet))
	results, err := l.AwaitAll(context.Background(), descs("x.glb"))
	require.NoError(t, err)
	assert.Equal(t, asset.Failed, results[0].State())
	assert.Contains(t, results[0].Err.Error(), "bad accessor")
}

func TestAwaitAllHonoursContext(t *testing.T) {
	block := make(chan struct{})
	var once sync.Once
	t.Cleanup(func() { once.Do(func() { close(block) }) })

	l := asset.NewLoader(func(p string) (*scene.Node, error) {
		<-block
		return scene.NewNode(p), nil
	}, asset.WithLogger(quiet))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.AwaitAll(ctx, descs("stuck.glb"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, asset.Pending, l.State("stuck.glb"))

	once.Do(func() { close(block) })
	assert.Eventually(t, func() bool { return l.State("stuck.glb") == asset.Loaded }, time.Second, time.Millisecond)
}

func TestLoadRealGLB(t *testing.T) {
	dir := t.TempDir()
	gltftest.WriteGLB(t, dir, "lift.glb", gltftest.Cube("Platform", "Steel", 1))

	l := asset.NewLoader(scene.DecodeGLTF, asset.WithLogger(quiet), asset.WithAssetRoot(dir))
	results, err := l.AwaitAll(context.Background(), []*asset.Descriptor{
		{Name: "lift", Source: "lift.glb"},
		{Name: "car", Source: "missing.glb"},
	})
	require.NoError(t, err)
	require.Equal(t, asset.Loaded, results[0].State())
	assert.NotNil(t, results[0].Node.Find("Platform"))
	assert.Equal(t, asset.Failed, results[1].State())
}
