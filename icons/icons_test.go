package icons

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trophyroom/achievements"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("http://example.com/icon.png"))
	assert.True(t, IsRemote("HTTPS://example.com/icon.png"))
	assert.False(t, IsRemote("/var/cache/icon.png"))
	assert.False(t, IsRemote("icon.png"))
	assert.False(t, IsRemote(""))
}

func TestDiskCachePath(t *testing.T) {
	c := NewDiskCache("/tmp/icons")

	p := c.Path("https://example.com/a/icon.png?size=64", "steam")
	assert.Contains(t, p, "steam")
	assert.Equal(t, ".png", p[len(p)-4:], "extension survives the query string")

	// Same URL maps to the same path.
	assert.Equal(t, p, c.Path("https://example.com/a/icon.png?size=64", "steam"))
	// Different URLs map to different paths.
	assert.NotEqual(t, p, c.Path("https://example.com/b/icon.png", "steam"))
}

func TestGetOrDownload(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := NewDiskCache(t.TempDir())
	url := srv.URL + "/icon.png"

	assert.False(t, c.IsCached(url, ""))

	local, err := c.GetOrDownload(context.Background(), url, "")
	require.NoError(t, err)
	raw, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(raw))
	assert.True(t, c.IsCached(url, ""))

	// Second call is a cache hit.
	again, err := c.GetOrDownload(context.Background(), url, "")
	require.NoError(t, err)
	assert.Equal(t, local, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetOrDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewDiskCache(t.TempDir())
	_, err := c.GetOrDownload(context.Background(), srv.URL+"/missing.png", "")
	assert.Error(t, err)
}

func TestResolveRewritesRemoteIcons(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("icon"))
	}))
	defer srv.Close()

	shared := srv.URL + "/shared.png"
	data := &achievements.GameData{
		HasAchievements: true,
		Achievements: []achievements.Detail{
			{ApiName: "A", IconUnlocked: shared, IconLocked: shared},
			{ApiName: "B", IconUnlocked: srv.URL + "/b.png", IconLocked: "local/b.png"},
		},
	}

	c := NewDiskCache(t.TempDir())
	Resolve(context.Background(), c, data, "")

	assert.False(t, IsRemote(data.Achievements[0].IconUnlocked))
	assert.Equal(t, data.Achievements[0].IconUnlocked, data.Achievements[0].IconLocked)
	assert.False(t, IsRemote(data.Achievements[1].IconUnlocked))
	assert.Equal(t, "local/b.png", data.Achievements[1].IconLocked, "local paths pass through")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "distinct URLs are downloaded once each")
}

func TestResolveLeavesURLOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	url := srv.URL + "/icon.png"
	data := &achievements.GameData{
		HasAchievements: true,
		Achievements:    []achievements.Detail{{ApiName: "A", IconUnlocked: url}},
	}

	Resolve(context.Background(), NewDiskCache(t.TempDir()), data, "")
	assert.Equal(t, url, data.Achievements[0].IconUnlocked, "original URL stays when the download fails")
}

func TestResolveNoRemoteIcons(t *testing.T) {
	data := &achievements.GameData{
		HasAchievements: true,
		Achievements:    []achievements.Detail{{ApiName: "A", IconUnlocked: "local.png"}},
	}
	Resolve(context.Background(), NewDiskCache(t.TempDir()), data, "")
	assert.Equal(t, "local.png", data.Achievements[0].IconUnlocked)
}
