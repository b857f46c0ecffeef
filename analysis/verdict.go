package analysis

import (
	"math/rand"

	"github.com/crytic/codetwin/utils/randomutils"
)

// verdictBand describes the verdicts given to scores at or above a minimum.
type verdictBand struct {
	minScore float64
	first    string
	verdicts *randomutils.WeightedRandomChooser[string]
}

func newVerdictBand(minScore float64, verdicts ...string) verdictBand {
	choices := make([]randomutils.WeightedRandomChoice[string], len(verdicts))
	for i, verdict := range verdicts {
		// The first verdict of a band is the most likely
		weight := uint64(1)
		if i == 0 {
			weight = 2
		}
		choices[i] = randomutils.NewWeightedRandomChoice(verdict, weight)
	}
	return verdictBand{minScore: minScore, first: verdicts[0], verdicts: randomutils.NewWeightedRandomChooser(choices...)}
}

// verdictBands is ordered by descending minimum score and covers [0, 100].
var verdictBands = []verdictBand{
	newVerdictBand(95,
		"Carbon copy: the deployer changed the constructor arguments and called it a day",
		"Byte for byte the same logic, down to the jump table",
		"Ctrl+C, Ctrl+V, deploy",
	),
	newVerdictBand(80,
		"Clone with a fresh coat of paint",
		"Same skeleton, a few new tattoos",
		"Forked, tweaked, redeployed",
	),
	newVerdictBand(50,
		"Heavily inspired, with some original ideas",
		"Shares a good part of its DNA with a known contract",
	),
	newVerdictBand(20,
		"Some familiar building blocks, mostly its own thing",
		"A passing resemblance, likely shared libraries",
	),
	newVerdictBand(0,
		"Original work, or at least nothing we have seen before",
		"No known relatives",
	),
}

// Verdict returns a human-readable verdict for a similarity score. The verdict is picked at random within the score's
// band using rng, so a fixed seed yields a fixed verdict. A nil rng always yields the band's first verdict.
func Verdict(score float64, rng *rand.Rand) string {
	band := verdictBands[len(verdictBands)-1]
	for _, b := range verdictBands {
		if score >= b.minScore {
			band = b
			break
		}
	}

	if rng == nil {
		return band.first
	}
	verdict, err := band.verdicts.Choose(rng)
	if err != nil {
		return band.first
	}
	return verdict
}
