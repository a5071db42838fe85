// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the load pipeline hot paths:
//   - order file parsing (CUE and TOML)
//   - catalog discovery and dependency levels
//   - full loads of the sample pack and of wide synthetic modules
//
// Run them with:
//
//	go test -run='^$' -bench=. -benchmem ./internal/benchmark/
//
// The CPU profile of a full run is a reasonable PGO input:
//
//	go test -run='^$' -bench=. -cpuprofile=default.pgo ./internal/benchmark/
package benchmark
