// Package valuation replays ledgers of transactions into holdings, tax lots
// and portfolio values.
//
// The core functionalities include:
//   - Ledger: an immutable record of transactions, one (portfolio, asset)
//     pair each, replayed by date then insertion sequence.
//   - Holdings: ComputeHolding folds the transactions of a pair into its
//     quantity, cost basis, lots, disposals and realized gains.
//   - Prices: a Lookup answers the price of an asset on a day from any
//     PriceSource, falling back to the closest recorded price.
//   - History: a Reconstructor samples the value of a portfolio over a Window.
//   - Engine: answers those questions over a TransactionStore and persists
//     holdings, debouncing recomputes with a Scheduler.
//
// Tax rules (holding periods and ESPP dispositions) live in the tax package.
// Every result is derived from the transactions alone: replaying the same
// transactions always gives the same holdings.
package valuation
