package pdf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitScale(t *testing.T) {
	cases := []struct {
		name    string
		content float64
		want    float64
	}{
		{"shorter than page", 600, 1},
		{"exactly one page", A4HeightPx, 1},
		{"rounded up scroll height", 1123, 1},
		{"two pages", A4HeightPx * 2, 0.5},
		{"slightly over", 1500, 0.748},
		{"absurdly long", A4HeightPx * 40, 0.1},
		{"zero", 0, 1},
		{"nan", math.NaN(), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FitScale(tc.content, A4HeightPx))
		})
	}
}

func TestFitScaleNeverOverflows(t *testing.T) {
	for content := 1124.0; content < 11000; content += 37 {
		scale := FitScale(content, A4HeightPx)
		assert.LessOrEqual(t, content*scale, A4HeightPx, "content %v", content)
		assert.GreaterOrEqual(t, scale, 0.1)
	}
}

func TestFitScaleWithoutPage(t *testing.T) {
	assert.Equal(t, 1.0, FitScale(5000, 0))
}
