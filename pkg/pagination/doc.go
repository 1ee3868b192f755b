// Package pagination walks cursor-paginated API collections.
//
// An Action is one traversal of one remote collection. It requests pages
// anchored at the key of the last element it has seen, keeps every fetched
// element in an append-only cache and stops once the API returns a short or
// empty page. Endpoint describes the collection: its route, page size bounds,
// supported orders, how elements are decoded and keyed, and how the anchor
// is encoded.
//
// Two consumption models sit on top of the same fetch path:
//
//   - Pull: Iterator and Stream block the calling goroutine while a page is
//     fetched. ForEachRemaining is the blocking form of the push walker.
//   - Push: ForEachAsync, TakeAsync, TakeWhileAsync and friends return a
//     Future immediately and fetch in the background. A walker stops when its
//     predicate returns false, the Future is cancelled or the context ends;
//     elements fetched but not yet delivered are kept, and the *Remaining*
//     variants resume with the element right after the one that stopped.
//
// Example usage:
//
//	history, _ := endpoints.MessageHistory(requester, channel)
//	_ = history.SetLimit(100)
//	for msg, err := range history.Stream(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(msg.Content)
//	}
//
// Page requests of one Action never overlap, even when several consumers
// share it, so the cache is always appended in traversal order. Configuration
// mistakes (limits out of range, unsupported or late order changes, skipping
// past cached data) are returned synchronously; transport errors only reach
// the consumer that needed the page. The engine never retries on its own.
package pagination
