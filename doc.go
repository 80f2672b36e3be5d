// Package stockbook tracks a personal stock portfolio.
//
// The core types are:
//   - Ledger: positions, cash balance, the trade journal, realized profits,
//     memos and alert thresholds of one portfolio.
//   - AccountingSystem: the engine applying buys, sells, deposits,
//     withdrawals and price refreshes to a Ledger, using a weighted average
//     cost basis and a commission rate.
//   - Gateway: the live market data provider the engine queries.
//   - Persister and DailyRecorder: where the engine stores the ledger after
//     each mutation and the daily aggregates after each refresh.
//
// The ledger snapshot format (EncodeLedger, DecodeLedger) is a single JSON
// object whose keys are stable across versions. ValidateSnapshot only checks
// its shape, so that storage layers can pick a valid candidate among several
// copies.
//
// This package serves as the foundational logic for the `sbk` command-line
// tool.
package stockbook
