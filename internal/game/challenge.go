package game

import (
	"context"
	"log"
	"math/rand"
	"sync"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// CHALLENGE SOURCING
// =============================================================================

// ChallengeSource produces the prompt for a round. Implementations may
// call out to external services; FetchChallenge bounds them with a
// deadline so a slow source never stalls a game start.
type ChallengeSource interface {
	Next(ctx context.Context, roundNumber int) (internal.Challenge, error)
}

// staticChallenges is the built-in prompt pool. Time limits are tuned per
// prompt so short quips get less runway than stories.
var staticChallenges = []internal.Challenge{
	{Text: "Write a creative story about a robot learning to love", Category: "Creative", TimeLimit: 45},
	{Text: "Explain quantum physics using only food metaphors", Category: "Educational", TimeLimit: 30},
	{Text: "Create a product pitch for an impossible invention", Category: "Business", TimeLimit: 35},
	{Text: "Write a poem about debugging code at 3 AM", Category: "Programming", TimeLimit: 25},
	{Text: "Describe your morning routine as an epic fantasy adventure", Category: "Humor", TimeLimit: 30},
	{Text: "Explain social media to a medieval knight", Category: "Historical", TimeLimit: 35},
	{Text: "Write a motivational speech for vegetables", Category: "Comedy", TimeLimit: 25},
	{Text: "Create a conspiracy theory about why socks disappear", Category: "Creative", TimeLimit: 30},
	{Text: "Describe a day in the life of your phone's battery", Category: "Perspective", TimeLimit: 35},
	{Text: "Write assembly instructions for making friends", Category: "Social", TimeLimit: 30},
}

// StaticSource cycles through a shuffled copy of the built-in pool so a
// room does not repeat a prompt until the whole pool has been played.
type StaticSource struct {
	mu   sync.Mutex
	pool []internal.Challenge
	next int
}

func NewStaticSource() *StaticSource {
	return NewStaticSourceFromPool(staticChallenges)
}

// NewStaticSourceFromPool builds a source over a custom prompt pool,
// such as one loaded from a challenge file. An empty pool falls back to
// the built-in prompts so Next always has something to serve.
func NewStaticSourceFromPool(pool []internal.Challenge) *StaticSource {
	if len(pool) == 0 {
		pool = staticChallenges
	}
	shuffled := make([]internal.Challenge, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &StaticSource{pool: shuffled}
}

func (s *StaticSource) Next(_ context.Context, roundNumber int) (internal.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge := s.pool[s.next%len(s.pool)]
	s.next++
	challenge.RoundNumber = roundNumber
	return challenge, nil
}

// FetchChallenge asks src for the next prompt within the fetch budget and
// falls back to the static pool when it errors or runs long. Always
// returns a usable challenge.
func FetchChallenge(src ChallengeSource, fallback *StaticSource, roundNumber int) internal.Challenge {
	ctx, cancel := context.WithTimeout(context.Background(), internal.ChallengeFetchBudget)
	defer cancel()

	type fetchResult struct {
		challenge internal.Challenge
		err       error
	}
	done := make(chan fetchResult, 1)
	go func() {
		challenge, err := src.Next(ctx, roundNumber)
		done <- fetchResult{challenge, err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.challenge
		}
		log.Printf("[FetchChallenge] round=%d: source failed, using static pool: %v", roundNumber, res.err)
	case <-ctx.Done():
		log.Printf("[FetchChallenge] round=%d: source timed out after %v, using static pool", roundNumber, internal.ChallengeFetchBudget)
	}

	challenge, _ := fallback.Next(context.Background(), roundNumber)
	return challenge
}

// fallbackDrafts are canned responses served when AI drafting is
// unavailable or over budget.
var fallbackDrafts = []string{
	"In a world where creativity meets technology, the impossible becomes possible through the power of imagination.",
	"Like a symphony of ideas dancing in digital harmony, this concept transforms the ordinary into extraordinary.",
	"Through the lens of innovation, we discover that every challenge is merely an opportunity wearing a clever disguise.",
	"In the grand theater of possibility, even the most mundane topics can steal the spotlight with the right perspective.",
	"Where logic meets whimsy, brilliant solutions emerge from the beautiful chaos of human creativity.",
}

// FallbackDraft picks one of the canned responses at random.
func FallbackDraft() string {
	return fallbackDrafts[rand.Intn(len(fallbackDrafts))]
}
