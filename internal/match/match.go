// Package match scores catalog games against a user's accumulated
// preference tags and ranks them.
package match

import (
	"sort"

	"gamerec-quiz-service/internal/domain"
)

// DefaultTopN is the number of recommendations returned when the caller
// does not ask for a specific count.
const DefaultTopN = 3

// Score returns the match percentage between the user's tags and a game's
// tags: the share of the user's distinct tags present on the game, times 100.
// Duplicates and ordering in userTags do not affect the result. An empty
// userTags means no preference was expressed and scores 0 against everything.
// Extra game tags the user never picked carry no penalty.
func Score(userTags, gameTags []string) float64 {
	distinct := toSet(userTags)
	if len(distinct) == 0 {
		return 0.0
	}

	gameSet := toSet(gameTags)
	matched := 0
	for tag := range distinct {
		if _, ok := gameSet[tag]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(distinct)) * 100
}

// Recommend scores every game against userTags and returns the topN best
// matches, highest score first. The sort is stable: games with equal scores
// keep their catalog order. topN <= 0 yields an empty slice; topN beyond the
// catalog size yields the whole ranked catalog.
func Recommend(userTags []string, games []domain.Game, topN int) []domain.ScoredGame {
	if topN <= 0 {
		return nil
	}

	scored := make([]domain.ScoredGame, 0, len(games))
	for _, game := range games {
		scored = append(scored, domain.ScoredGame{
			Game:         game,
			Score:        Score(userTags, game.Tags),
			MatchingTags: MatchingTags(userTags, game.Tags),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN < len(scored) {
		scored = scored[:topN]
	}
	return scored
}

// MatchingTags returns the sorted set of user tags also present on the game,
// for result display.
func MatchingTags(userTags, gameTags []string) []string {
	gameSet := toSet(gameTags)
	var tags []string
	for tag := range toSet(userTags) {
		if _, ok := gameSet[tag]; ok {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}
