package usecase

import (
	"math"
	"sort"

	"app/internal/domain/model"
)

const recommendTopN = 4

// anchor自身とembeddingの無い候補を除き、コサイン類似度の降順でtopN件返す。
func rankBySimilarity(anchor model.Product, candidates []model.Product, topN int) []model.Product {
	type scored struct {
		product model.Product
		score   float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == anchor.ID || len(c.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{
			product: c,
			score:   cosineSimilarity(anchor.Embedding, c.Embedding),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]model.Product, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.product)
	}
	return out
}

// 次元が合わない・ゼロベクトルは類似度0扱い
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
