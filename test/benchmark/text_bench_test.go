package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/highlight"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/matcher"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
)

var sampleTexts = map[string]string{
	"short":  "السَّلامُ عَلَيْكُمْ وَرَحْمَةُ اللهِ",
	"medium": "إِنَّمَا الأَعْمَالُ بِالنِّيَّاتِ، وَإِنَّمَا لِكُلِّ امْرِئٍ مَا نَوَى، فَمَنْ كَانَتْ هِجْرَتُهُ إِلَى اللَّهِ وَرَسُولِهِ فَهِجْرَتُهُ إِلَى اللَّهِ وَرَسُولِهِ",
	"long":   strings.Repeat("العِلْمُ نُورٌ وَالجَهْلُ ظَلامٌ، وَالصَّبْرُ مِفْتَاحُ الفَرَجِ، وَخَيْرُ الكَلامِ مَا قَلَّ وَدَلَّ. ", 40),
}

func BenchmarkNormalize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(text)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = normalize.Normalize(text)
			}
		})
	}
}

func BenchmarkContainsFuzzy(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = matcher.ContainsFuzzy(text, "الله ورسوله")
			}
		})
	}
}

func BenchmarkHighlight(b *testing.B) {
	for _, mode := range []highlight.Mode{highlight.ModePhrase, highlight.ModeTerms} {
		for name, text := range sampleTexts {
			b.Run(string(mode)+"/"+name, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_ = highlight.Apply(mode, text, "الصبر مفتاح")
				}
			})
		}
	}
}
