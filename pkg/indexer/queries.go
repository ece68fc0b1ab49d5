package indexer

import (
	"github.com/chronicle-go/chronicle/pkg/metrics"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
)

// Options bundles everything a Run*Query call needs beyond the query
// struct itself.
type Options struct {
	Order        types.IndexerPageOrder
	Cursor       *storage.IndexedOutputsCursor
	PageSize     int
	LedgerIndex  types.SlotIndex
	IncludeSpent bool
	// Features decodes an output's protocol-level features; defaults to
	// types.NoFeatures when nil.
	Features types.FeaturesFn
}

func run(store storage.Store, kind string, filter types.FilterSet, opts Options) (*types.IndexedOutputResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.IndexerQueryDuration, kind)
	metrics.IndexerQueriesTotal.WithLabelValues(kind).Inc()

	features := opts.Features
	if features == nil {
		features = types.NoFeatures
	}
	match := compileMatch(filter, opts.LedgerIndex, opts.IncludeSpent, features)
	return store.ScanOutputsByBookedSlot(opts.Order, opts.Cursor, opts.PageSize, opts.LedgerIndex, match)
}

// RunBasicOutputsQuery runs a BasicOutputsQuery.
func RunBasicOutputsQuery(store storage.Store, q types.BasicOutputsQuery, opts Options) (*types.IndexedOutputResult, error) {
	var filter types.FilterSet
	q.AppendQuery(&filter)
	return run(store, "basic", filter, opts)
}

// RunAccountOutputsQuery runs an AccountOutputsQuery.
func RunAccountOutputsQuery(store storage.Store, q types.AccountOutputsQuery, opts Options) (*types.IndexedOutputResult, error) {
	var filter types.FilterSet
	q.AppendQuery(&filter)
	return run(store, "account", filter, opts)
}

// RunAnchorOutputsQuery runs an AnchorOutputsQuery.
func RunAnchorOutputsQuery(store storage.Store, q types.AnchorOutputsQuery, opts Options) (*types.IndexedOutputResult, error) {
	var filter types.FilterSet
	q.AppendQuery(&filter)
	return run(store, "anchor", filter, opts)
}

// RunFoundryOutputsQuery runs a FoundryOutputsQuery.
func RunFoundryOutputsQuery(store storage.Store, q types.FoundryOutputsQuery, opts Options) (*types.IndexedOutputResult, error) {
	var filter types.FilterSet
	q.AppendQuery(&filter)
	return run(store, "foundry", filter, opts)
}

// RunNFTOutputsQuery runs an NFTOutputsQuery.
func RunNFTOutputsQuery(store storage.Store, q types.NFTOutputsQuery, opts Options) (*types.IndexedOutputResult, error) {
	var filter types.FilterSet
	q.AppendQuery(&filter)
	return run(store, "nft", filter, opts)
}

// RunDelegationOutputsQuery runs a DelegationOutputsQuery.
func RunDelegationOutputsQuery(store storage.Store, q types.DelegationOutputsQuery, opts Options) (*types.IndexedOutputResult, error) {
	var filter types.FilterSet
	q.AppendQuery(&filter)
	return run(store, "delegation", filter, opts)
}

// RunIndexedOutputByID returns the current unspent output for a singleton
// id (account, foundry, nft, delegation, anchor) — §4.5's
// get_indexed_output_by_id.
func RunIndexedOutputByID(store storage.Store, id types.OutputId, ledgerIndex types.SlotIndex) (*types.OutputDocument, error) {
	doc, err := store.GetOutputWithMetadata(id, ledgerIndex)
	if err != nil {
		return nil, err
	}
	if !doc.IsUnspentAt(ledgerIndex) {
		return nil, &types.NoResults{Query: "indexed output by id"}
	}
	return doc, nil
}
