package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ds124wfegd/image-transform/internal/entity"
	"github.com/ds124wfegd/image-transform/internal/pkg/command"
	"github.com/ds124wfegd/image-transform/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*Gate, *storage.DiskStorage) {
	t.Helper()
	st := storage.NewFileStorage(t.TempDir())
	return NewGate(st, NewKeyedMutex()), st
}

func mustParse(t *testing.T, text string) *command.Chain {
	t.Helper()
	chain, err := command.Parse(text)
	require.NoError(t, err)
	return chain
}

// TestPathIsDeterministic проверяет, что одинаковые цепочки дают один путь
func TestPathIsDeterministic(t *testing.T) {
	g, _ := newTestGate(t)

	built := command.NewChain().Thumbnail(128, 128).Resize(100, 100, entity.Bilinear)
	parsed := mustParse(t, "thumbnail,w_128,h_128/resize,w_100,h_100,m_l")

	a := g.Path(Key{Tenant: "shop", ObjectID: 5, Chain: built, Extension: "png"})
	b := g.Path(Key{Tenant: "shop", ObjectID: 5, Chain: parsed, Extension: "png"})

	assert.Equal(t, a, b)
	assert.Equal(t, filepath.Join("shop", "5", "thumbnail,w_128,h_128,m_n_resize,w_100,h_100,m_b.png"), a)
}

func TestPathNamespacing(t *testing.T) {
	g, _ := newTestGate(t)
	chain := command.NewChain().Fit(10, 10)

	base := g.Path(Key{Tenant: "shop", ObjectID: 5, Chain: chain, Extension: "png"})

	assert.NotEqual(t, base, g.Path(Key{Tenant: "other", ObjectID: 5, Chain: chain, Extension: "png"}))
	assert.NotEqual(t, base, g.Path(Key{Tenant: "shop", ObjectID: 6, Chain: chain, Extension: "png"}))
	assert.NotEqual(t, base, g.Path(Key{Tenant: "shop", ObjectID: 5, Chain: chain, Extension: "jpg"}))

	unsafe := g.Path(Key{Tenant: "../../etc", ObjectID: 5, Chain: chain, Extension: "png"})
	assert.False(t, strings.Contains(unsafe, ".."))

	empty := g.Path(Key{ObjectID: 5, Chain: chain, Extension: "png"})
	assert.True(t, strings.HasPrefix(empty, defaultTenant+string(filepath.Separator)))
}

func TestPathLongChainsStayDistinct(t *testing.T) {
	g, _ := newTestGate(t)

	first := command.NewChain()
	second := command.NewChain()
	for i := 0; i < 20; i++ {
		first.Resize(1000, 1000)
		second.Resize(1000, 1000)
	}
	second.Resize(1000, 999)

	a := filepath.Base(g.Path(Key{Tenant: "t", ObjectID: 1, Chain: first, Extension: "png"}))
	b := filepath.Base(g.Path(Key{Tenant: "t", ObjectID: 1, Chain: second, Extension: "png"}))

	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, len(a), maxNameLength+len(".png"))
	assert.LessOrEqual(t, len(b), maxNameLength+len(".png"))
}

func TestSecureName(t *testing.T) {
	tests := map[string]string{
		"thumbnail,w_1,h_1,m_n":  "thumbnail,w_1,h_1,m_n",
		"a/b":                    "a_b",
		"../../x":                "x",
		"  spaced   out ":        "spaced_out",
		"weird*?<>|chars":        "weirdchars",
		"._hidden_.":             "hidden",
		"ünïcödé":                "ncd",
	}
	for in, want := range tests {
		assert.Equal(t, want, secureName(in), in)
	}
}

// TestStateTransitions проверяет переходы Miss -> Fresh -> Stale -> Fresh
func TestStateTransitions(t *testing.T) {
	g, st := newTestGate(t)
	key := Key{Tenant: "db", ObjectID: 1, Chain: command.NewChain().Thumbnail(10, 10), Extension: "png"}
	path := g.Path(key)

	t1 := time.Now().Add(-time.Hour).UTC()
	renders := 0
	render := func() ([]byte, error) {
		renders++
		return []byte("rendition"), nil
	}

	state, err := g.State(path, t1)
	require.NoError(t, err)
	assert.Equal(t, Miss, state)

	res, err := g.Resolve(context.Background(), key, t1, render)
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.Equal(t, Miss, res.State)
	assert.Equal(t, st.FullPath(path), res.Path)
	assert.Equal(t, 1, renders)

	res, err = g.Resolve(context.Background(), key, t1, render)
	require.NoError(t, err)
	assert.False(t, res.Regenerated)
	assert.Equal(t, Fresh, res.State)
	assert.Equal(t, 1, renders)

	// файл записан в T0 < T1
	t0 := t1.Add(-time.Minute)
	require.NoError(t, st.Chtimes(path, t0))

	state, err = g.State(path, t1)
	require.NoError(t, err)
	assert.Equal(t, Stale, state)

	res, err = g.Resolve(context.Background(), key, t1, render)
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.Equal(t, Stale, res.State)
	assert.Equal(t, 2, renders)

	info, err := st.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.ModTime().Before(t1))

	state, err = g.State(path, t1)
	require.NoError(t, err)
	assert.Equal(t, Fresh, state)
}

// TestResolveMasterUpdatedInFuture: мастер с датой в будущем не должен
// скрывать последующие обновления
func TestResolveMasterUpdatedInFuture(t *testing.T) {
	g, st := newTestGate(t)
	key := Key{Tenant: "db", ObjectID: 2, Chain: command.NewChain().Resize(1, 1), Extension: "png"}
	path := g.Path(key)

	now := time.Now().UTC()
	future := now.Add(time.Hour)

	renders := 0
	render := func() ([]byte, error) {
		renders++
		return []byte("x"), nil
	}

	_, err := g.Resolve(context.Background(), key, future, render)
	require.NoError(t, err)

	info, err := st.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Before(future))

	state, err := g.State(path, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, Stale, state)

	state, err = g.State(path, future)
	require.NoError(t, err)
	assert.Equal(t, Stale, state)

	res, err := g.Resolve(context.Background(), key, future, render)
	require.NoError(t, err)
	assert.True(t, res.Regenerated)
	assert.Equal(t, 2, renders)
}

// TestResolveStampsRenderStart проверяет, что обновление мастера во время
// рендера делает результат устаревшим
func TestResolveStampsRenderStart(t *testing.T) {
	g, _ := newTestGate(t)
	key := Key{Tenant: "db", ObjectID: 5, Chain: command.NewChain().Fit(2, 2), Extension: "png"}

	start := time.Now().Add(-time.Minute).UTC()
	g.now = func() time.Time { return start }

	var updatedDuringRender time.Time
	_, err := g.Resolve(context.Background(), key, start.Add(-time.Hour), func() ([]byte, error) {
		updatedDuringRender = start.Add(time.Second)
		return []byte("x"), nil
	})
	require.NoError(t, err)

	state, err := g.State(g.Path(key), updatedDuringRender)
	require.NoError(t, err)
	assert.Equal(t, Stale, state)
}

func TestMissingMasterTimestampIsAlwaysStale(t *testing.T) {
	g, _ := newTestGate(t)
	key := Key{Tenant: "db", ObjectID: 3, Chain: command.NewChain().Resize(1, 1), Extension: "png"}

	renders := 0
	render := func() ([]byte, error) {
		renders++
		return []byte("x"), nil
	}

	for i := 0; i < 3; i++ {
		res, err := g.Resolve(context.Background(), key, time.Time{}, render)
		require.NoError(t, err)
		assert.True(t, res.Regenerated)
	}
	assert.Equal(t, 3, renders)

	state, err := g.State(g.Path(key), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, Stale, state)
}

func TestResolveRenderErrorWritesNothing(t *testing.T) {
	g, st := newTestGate(t)
	key := Key{Tenant: "db", ObjectID: 4, Chain: command.NewChain().Resize(1, 1), Extension: "png"}

	_, err := g.Resolve(context.Background(), key, time.Now(), func() ([]byte, error) {
		return nil, entity.ErrDecode
	})
	assert.ErrorIs(t, err, entity.ErrDecode)
	assert.False(t, st.Exists(g.Path(key)))
}

func TestResolveDirectoryFailureIsFatal(t *testing.T) {
	g, st := newTestGate(t)
	require.NoError(t, st.WriteAtomic("blocked", []byte("not a directory")))

	key := Key{Tenant: "blocked", ObjectID: 1, Chain: command.NewChain().Resize(1, 1), Extension: "png"}
	_, err := g.Resolve(context.Background(), key, time.Now(), func() ([]byte, error) {
		t.Fatal("render must not run")
		return nil, nil
	})
	require.Error(t, err)
	assert.False(t, entity.IsClientError(err))
}

// TestConcurrentResolveRendersOnce проверяет, что параллельные запросы не дублируют работу
func TestConcurrentResolveRendersOnce(t *testing.T) {
	g, st := newTestGate(t)
	key := Key{Tenant: "db", ObjectID: 9, Chain: command.NewChain().Fit(20, 20), Extension: "png"}
	master := time.Now().Add(-time.Hour)

	var renders atomic.Int32
	render := func() ([]byte, error) {
		renders.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []byte("rendition"), nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Resolve(context.Background(), key, master, render)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), renders.Load())

	data, err := os.ReadFile(st.FullPath(g.Path(key)))
	require.NoError(t, err)
	assert.Equal(t, "rendition", string(data))
}

func TestKeyedMutex(t *testing.T) {
	m := NewKeyedMutex()

	unlock, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	// другой ключ не блокируется
	unlockB, err := m.Lock(context.Background(), "b")
	require.NoError(t, err)
	unlockB()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "a")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	unlock()
	unlock() // повторный вызов безопасен
	assert.Equal(t, 0, m.size())

	unlock, err = m.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	assert.Equal(t, 0, m.size())
}
