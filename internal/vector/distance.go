package vector

import "math"

// CosineSimilarity returns the cosine similarity of u and v:
// dot(u,v) / (|u|*|v|). If either vector has zero norm (a degenerate
// embedding, e.g. of an empty string) the similarity is defined as 0 so
// that the corresponding distance is the neutral value 1.
func CosineSimilarity(u, v []float32) float64 {
	if len(u) != len(v) || len(u) == 0 {
		return 0
	}
	var dot, nu, nv float64
	for i := range u {
		dot += float64(u[i]) * float64(v[i])
		nu += float64(u[i]) * float64(u[i])
		nv += float64(v[i]) * float64(v[i])
	}
	if nu == 0 || nv == 0 {
		return 0
	}
	return dot / (math.Sqrt(nu) * math.Sqrt(nv))
}

// CosineDistance returns 1 - CosineSimilarity(u, v). Zero-norm inputs
// yield exactly 1: neither close nor maximally far.
func CosineDistance(u, v []float32) float64 {
	return 1 - CosineSimilarity(u, v)
}

// L2Norm returns the Euclidean norm of x.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
