/*
Package indexer is Chronicle's typed query layer (§4.5): one predicate
struct per output kind compiles, via types.AppendQuery, into a FilterSet;
one free function per kind (RunBasicOutputsQuery, RunAccountOutputsQuery,
...) compiles that FilterSet into a match predicate and walks
storage.Store.ScanOutputsByBookedSlot with it. There is no generic
FromRequest-style extractor — a new output kind gets a new query struct and
a new Run function, never a branch inside a shared one.
*/
package indexer
