package metrics

import "time"

// RecordStoreOperation records a local store operation.
// result is "success", "failure" or, for loads, "corrupt".
func RecordStoreOperation(op, result string) {
	StoreOperationsTotal.WithLabelValues(op, result).Inc()
}

// UpdateLocalRecipesTotal sets the gauge of recipes held in the local store.
func UpdateLocalRecipesTotal(count int) {
	LocalRecipesTotal.Set(float64(count))
}

// RecordSearch records the outcome of a merge-search.
//
// Parameters:
//   - local: number of matching local recipes returned
//   - remote: number of remote recipes returned after de-duplication
//   - remoteFailed: whether the remote portion degraded to empty
func RecordSearch(local, remote int, remoteFailed bool) {
	result := "hit"
	switch {
	case remoteFailed:
		result = "remote_degraded"
	case local+remote == 0:
		result = "empty"
	}
	SearchesTotal.WithLabelValues(result).Inc()
	SearchResults.WithLabelValues("local").Observe(float64(local))
	SearchResults.WithLabelValues("remote").Observe(float64(remote))
}

// RecordRemoteFetch records a remote recipe API call.
func RecordRemoteFetch(endpoint, result string, duration time.Duration) {
	RemoteFetchTotal.WithLabelValues(endpoint, result).Inc()
	RemoteFetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordImageProxy records the result of a thumbnail request.
func RecordImageProxy(result string) {
	ImageProxyTotal.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a request that limiter turned away.
func RecordRateLimited(limiter string) {
	RateLimitRejectedTotal.WithLabelValues(limiter).Inc()
}

func SetRateLimitClients(limiter string, n int) {
	RateLimitClients.WithLabelValues(limiter).Set(float64(n))
}
