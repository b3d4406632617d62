// Package grid enumerates the parameter sweep, dispatches grid points to a
// bounded worker pool, and assembles the persisted result row per point.
package grid

import (
	"math/rand"

	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/config"
	"github.com/danielpatrickdp/mutual-influence/go-harness/internal/ledger"
)

// #region enumerate

// Enumerate expands the sweep into grid-point keys in deterministic nested
// order: beta, k, tau, alpha, seed, adversarial.
func Enumerate(sweep config.SweepConfig) []ledger.Key {
	keys := make([]ledger.Key, 0, sweep.Size())
	for _, b := range sweep.Beta {
		for _, k := range sweep.K {
			for _, tau := range sweep.Tau {
				for _, a := range sweep.Alpha {
					for _, s := range sweep.Seeds {
						for _, adv := range sweep.Adversarial {
							keys = append(keys, ledger.Key{
								Beta:        b,
								K:           k,
								Tau:         tau,
								Alpha:       a,
								Seed:        s,
								Adversarial: adv,
							})
						}
					}
				}
			}
		}
	}
	return keys
}

// Shuffle permutes the keys with a seeded source, so a budget-stopped run
// still samples the whole space instead of one corner of it.
func Shuffle(keys []ledger.Key, seed int64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}

// #endregion enumerate
