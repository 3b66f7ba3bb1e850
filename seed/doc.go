// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package seed fills an empty store with a demo marketplace.

The data set (categories, cities, providers, clients and review text) lives in
data.yaml and is embedded in the binary. Random choices such as hourly rates,
verification and review counts come from a PRNG seeded with Options.RandSeed,
so the same seed always produces the same marketplace.

	sum, err := seed.Run(ctx, storage, seed.Options{BcryptCost: cfg.BcryptCost})

Run does nothing when the store already has categories.
*/
package seed
