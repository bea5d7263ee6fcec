package model

import (
	"math"
	"testing"
)

func TestNextAggregate_Example(t *testing.T) {
	// 平均4.0・2件の章に5を追加すると平均4.33・3件になる
	avg, count := NextAggregate(4.0, 2, 5)

	if avg != 4.33 {
		t.Errorf("avg = %v, want 4.33", avg)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestNextAggregate_FirstRating(t *testing.T) {
	avg, count := NextAggregate(0, 0, 5)

	if avg != 5.0 {
		t.Errorf("avg = %v, want 5.0", avg)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestNextAggregate_SequentialMatchesMean(t *testing.T) {
	// 逐次適用した結果が全評価の算術平均（小数第2位丸め）と一致すること
	tests := []struct {
		name    string
		ratings []int
	}{
		{"all fives", []int{5, 5, 5, 5}},
		{"mixed", []int{1, 3, 5, 2, 4}},
		{"two values", []int{2, 5}},
		{"non terminating mean", []int{1, 1, 2}}, // 4/3 = 1.333...
		{"ten ratings", []int{3, 4, 5, 1, 2, 3, 4, 5, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, count := 0.0, 0
			sum := 0
			for _, r := range tt.ratings {
				avg, count = NextAggregate(avg, count, r)
				sum += r
			}

			if count != len(tt.ratings) {
				t.Errorf("count = %d, want %d", count, len(tt.ratings))
			}

			want := math.Round(float64(sum)/float64(len(tt.ratings))*100) / 100
			// 丸めの累積誤差は最終桁1程度まで許容する
			if math.Abs(avg-want) > 0.011 {
				t.Errorf("avg = %v, want %v (±0.01)", avg, want)
			}
		})
	}
}

func TestNextAggregate_RoundsToTwoDecimals(t *testing.T) {
	avg, _ := NextAggregate(0, 0, 1)
	avg, _ = NextAggregate(avg, 1, 2)
	avg, count := NextAggregate(avg, 2, 2)

	// (1+2+2)/3 = 1.666... → 1.67
	if avg != 1.67 {
		t.Errorf("avg = %v, want 1.67", avg)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
