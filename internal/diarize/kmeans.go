package diarize

import "math"

const maxIterations = 100

// kMeans clusters the feature vectors into k groups and returns one label per
// vector, in [0, k). Centroids are seeded with farthest-point initialization,
// so the same inputs always produce the same labeling.
func kMeans(vectors [][]float64, k int) []int {
	labels := make([]int, len(vectors))
	if k <= 1 || len(vectors) == 0 {
		return labels
	}
	if k > len(vectors) {
		k = len(vectors)
	}

	centroids := initialCentroids(vectors, k)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		recomputeCentroids(vectors, labels, centroids)
	}

	return labels
}

// initialCentroids seeds the first centroid with the first vector and each
// subsequent one with the vector farthest from all centroids chosen so far
func initialCentroids(vectors [][]float64, k int) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), vectors[0]...))

	for len(centroids) < k {
		farthest := 0
		farthestDist := -1.0
		for i, v := range vectors {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(v, c); dist < d {
					d = dist
				}
			}
			if d > farthestDist {
				farthestDist = d
				farthest = i
			}
		}
		centroids = append(centroids, append([]float64(nil), vectors[farthest]...))
	}

	return centroids
}

func nearestCentroid(v []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		d := squaredDistance(v, centroid)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func recomputeCentroids(vectors [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	for c := range centroids {
		for i := range centroids[c] {
			centroids[c][i] = 0
		}
	}

	for i, v := range vectors {
		c := labels[i]
		counts[c]++
		for j, x := range v {
			centroids[c][j] += x
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			// Keep an empty cluster alive by parking its centroid on the
			// vector farthest from the populated centroids
			farthest := 0
			farthestDist := -1.0
			for i, v := range vectors {
				d := squaredDistance(v, centroids[labels[i]])
				if d > farthestDist {
					farthestDist = d
					farthest = i
				}
			}
			copy(centroids[c], vectors[farthest])
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(counts[c])
		}
	}
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
