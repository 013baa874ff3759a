package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"gamerec-quiz-service/internal/domain"
)

// CatalogLoader fetches catalog content from a backing store (file, Postgres, etc).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// CatalogRepository caches catalogs in Redis and falls back to a loader on cache miss.
// Questions and games are stored as JSON arrays under:
//
//	SET catalog:{catalogID}:questions {json}
//	SET catalog:{catalogID}:games     {json}
//
// Arrays keep their order; question progression and ranking tie-breaks both
// depend on catalog order, so a field-per-record hash would not do.
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	if catalog, ok := r.fromCache(ctx, catalogID); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(catalogID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.fromCache(ctx, catalogID); ok {
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx, catalogID)
		if err != nil {
			return domain.Catalog{}, err
		}

		questions, err := json.Marshal(catalog.Questions)
		if err != nil {
			return domain.Catalog{}, err
		}
		games, err := json.Marshal(catalog.Games)
		if err != nil {
			return domain.Catalog{}, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		pipe.Set(ctx, r.questionsKey(catalogID), questions, ttl)
		pipe.Set(ctx, r.gamesKey(catalogID), games, ttl)
		_, _ = pipe.Exec(ctx)

		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *CatalogRepository) fromCache(ctx context.Context, catalogID string) (domain.Catalog, bool) {
	rawQuestions, err := r.client.Get(ctx, r.questionsKey(catalogID)).Bytes()
	if err != nil {
		return domain.Catalog{}, false
	}
	rawGames, err := r.client.Get(ctx, r.gamesKey(catalogID)).Bytes()
	if err != nil {
		return domain.Catalog{}, false
	}

	catalog := domain.Catalog{ID: catalogID}
	if err := json.Unmarshal(rawQuestions, &catalog.Questions); err != nil {
		return domain.Catalog{}, false
	}
	if err := json.Unmarshal(rawGames, &catalog.Games); err != nil {
		return domain.Catalog{}, false
	}
	return catalog, true
}

func (r *CatalogRepository) questionsKey(catalogID string) string {
	return "catalog:" + catalogID + ":questions"
}

func (r *CatalogRepository) gamesKey(catalogID string) string {
	return "catalog:" + catalogID + ":games"
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
