package bitvec

import (
	"math/rand"
	"testing"

	reference "github.com/siongui/go-succinct-data-structure-trie/reference"
)

// Benchmarks against the base64 reference structures used by the frontend
// succinct trie, on comparable bit counts.

func benchmarkVectorRank(b *testing.B, size int) {
	r := rand.New(rand.NewSource(1))
	v := New()
	for i := 0; i < size; i++ {
		v.Push(r.Intn(2) == 0)
	}
	v.Build(true, true, NormalCache)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Rank1(uint32(i % size))
	}
}

func benchmarkVectorSelect(b *testing.B, size int) {
	r := rand.New(rand.NewSource(1))
	v := New()
	for i := 0; i < size; i++ {
		v.Push(r.Intn(2) == 0)
	}
	v.Build(true, true, NormalCache)
	ones := int(v.OnesCount())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Select1(uint32(i % ones))
	}
}

func BenchmarkVector_Rank_10K(b *testing.B)    { benchmarkVectorRank(b, 10_000) }
func BenchmarkVector_Rank_1M(b *testing.B)     { benchmarkVectorRank(b, 1_000_000) }
func BenchmarkVector_Select_10K(b *testing.B)  { benchmarkVectorSelect(b, 10_000) }
func BenchmarkVector_Select_1M(b *testing.B)   { benchmarkVectorSelect(b, 1_000_000) }

func generateRandomBase64Data(r *rand.Rand, approxBits int) string {
	const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	charsNeeded := (approxBits + 5) / 6
	result := make([]byte, charsNeeded)
	for i := 0; i < charsNeeded; i++ {
		result[i] = base64Chars[r.Intn(len(base64Chars))]
	}
	return string(result)
}

func benchmarkRankDirectoryRank(b *testing.B, approxBits int) {
	data := generateRandomBase64Data(rand.New(rand.NewSource(1)), approxBits)
	numBits := uint(len(data) * 6)
	rd := reference.CreateRankDirectory(data, numBits, 32*32, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rd.Rank(1, uint(i%int(numBits)))
	}
}

func benchmarkRankDirectorySelect(b *testing.B, approxBits int) {
	data := generateRandomBase64Data(rand.New(rand.NewSource(1)), approxBits)
	numBits := uint(len(data) * 6)
	rd := reference.CreateRankDirectory(data, numBits, 32*32, 32)
	totalOnes := rd.Rank(1, numBits-1)
	if totalOnes == 0 {
		b.Skip("no ones in the data")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rd.Select(1, uint(i%int(totalOnes))+1)
	}
}

func BenchmarkRankDirectory_Rank_10K(b *testing.B)   { benchmarkRankDirectoryRank(b, 10_000) }
func BenchmarkRankDirectory_Rank_1M(b *testing.B)    { benchmarkRankDirectoryRank(b, 1_000_000) }
func BenchmarkRankDirectory_Select_10K(b *testing.B) { benchmarkRankDirectorySelect(b, 10_000) }
func BenchmarkRankDirectory_Select_1M(b *testing.B)  { benchmarkRankDirectorySelect(b, 1_000_000) }
