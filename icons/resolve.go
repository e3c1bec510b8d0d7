package icons

import (
	"context"
	"sync"

	"trophyroom/achievements"
	"trophyroom/logging"
)

// Resolve rewrites remote icon URLs in a record to local cache paths before
// the record is persisted. Distinct URLs are downloaded once each, in
// parallel; a failed download logs at debug level and leaves the original
// URL in place so the record still saves.
func Resolve(ctx context.Context, cache Cache, data *achievements.GameData, scopeID string) {
	if cache == nil || data == nil {
		return
	}

	urls := make(map[string]struct{})
	for i := range data.Achievements {
		a := &data.Achievements[i]
		if IsRemote(a.IconUnlocked) {
			urls[a.IconUnlocked] = struct{}{}
		}
		if IsRemote(a.IconLocked) {
			urls[a.IconLocked] = struct{}{}
		}
	}
	if len(urls) == 0 {
		return
	}

	var mu sync.Mutex
	resolved := make(map[string]string, len(urls))

	var wg sync.WaitGroup
	for url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			local, err := cache.GetOrDownload(ctx, url, scopeID)
			if err != nil {
				logging.Debug("failed to cache achievement icon", "url", url, "error", err)
				return
			}
			mu.Lock()
			resolved[url] = local
			mu.Unlock()
		}(url)
	}
	wg.Wait()

	for i := range data.Achievements {
		a := &data.Achievements[i]
		if local, ok := resolved[a.IconUnlocked]; ok {
			a.IconUnlocked = local
		}
		if local, ok := resolved[a.IconLocked]; ok {
			a.IconLocked = local
		}
	}
}
