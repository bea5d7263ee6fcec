// Package model はドメインモデルを定義する。
package model

import "math"

// NextAggregate は章の現在の集計(avg, count)に新しい評価rを加えた集計を返す。
// 逐次平均 ((avg × count) + r) / (count + 1) を小数第2位に丸めて返す。
// この計算は同一章への他の更新と排他的に実行された場合にのみ正確であり、
// 呼び出し側（RatingRepository.Submit）が章単位の直列化を保証する。
func NextAggregate(avg float64, count, r int) (float64, int) {
	newAvg := (avg*float64(count) + float64(r)) / float64(count+1)
	return math.Round(newAvg*100) / 100, count + 1
}
