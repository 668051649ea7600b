package retrieval

import "math"

// CosineSimilarity computes dot(a,b) / (‖a‖‖b‖); returns 0 on length
// mismatch or either-zero-norm. Specified "for future use" (§4.5); nothing
// in the daemon calls it. store.NearestObservations ranks by the vec0
// extension's own distance metric and does not use this function.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
