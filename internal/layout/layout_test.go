package layout

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelwire/internal/pixel"
)

// render returns the 5x5 index matrix for an arrangement, row by row.
func render(a Arrangement) [5][5]int {
	g := Grid{Width: 5, Height: 5, Arrangement: a}
	var m [5][5]int
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			m[y][x] = g.Index(x, y)
		}
	}
	return m
}

func TestArrangementIndex(t *testing.T) {
	var tests = []struct {
		Name   string
		Expect [5][5]int
	}{
		{"LeftToRight_TopToBottom_Zigzag", [5][5]int{
			{0, 1, 2, 3, 4}, {5, 6, 7, 8, 9}, {10, 11, 12, 13, 14}, {15, 16, 17, 18, 19}, {20, 21, 22, 23, 24}}},
		{"RightToLeft_BottomToTop_Zigzag", [5][5]int{
			{24, 23, 22, 21, 20}, {19, 18, 17, 16, 15}, {14, 13, 12, 11, 10}, {9, 8, 7, 6, 5}, {4, 3, 2, 1, 0}}},
		{"TopToBottom_RightToLeft_Zigzag", [5][5]int{
			{20, 15, 10, 5, 0}, {21, 16, 11, 6, 1}, {22, 17, 12, 7, 2}, {23, 18, 13, 8, 3}, {24, 19, 14, 9, 4}}},
		{"LeftToRight_TopToBottom_Snake", [5][5]int{
			{0, 1, 2, 3, 4}, {9, 8, 7, 6, 5}, {10, 11, 12, 13, 14}, {19, 18, 17, 16, 15}, {20, 21, 22, 23, 24}}},
		{"RightToLeft_TopToBottom_Snake", [5][5]int{
			{4, 3, 2, 1, 0}, {5, 6, 7, 8, 9}, {14, 13, 12, 11, 10}, {15, 16, 17, 18, 19}, {24, 23, 22, 21, 20}}},
		{"TopToBottom_LeftToRight_Snake", [5][5]int{
			{0, 9, 10, 19, 20}, {1, 8, 11, 18, 21}, {2, 7, 12, 17, 22}, {3, 6, 13, 16, 23}, {4, 5, 14, 15, 24}}},
		{"BottomToTop_LeftToRight_Snake", [5][5]int{
			{4, 5, 14, 15, 24}, {3, 6, 13, 16, 23}, {2, 7, 12, 17, 22}, {1, 8, 11, 18, 21}, {0, 9, 10, 19, 20}}},
	}
	for _, v := range tests {
		t.Run(v.Name, func(t *testing.T) {
			a, err := ParseArrangement(v.Name)
			require.NoError(t, err)
			assert.Equal(t, v.Name, a.String())
			assert.Equal(t, v.Expect, render(a))
		})
	}
}

func TestEveryArrangementIsPermutation(t *testing.T) {
	all := Arrangements()
	require.Len(t, all, 16)
	for _, a := range all {
		g := Grid{Width: 4, Height: 3, Arrangement: a}
		seen := make(map[int]bool)
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				seen[g.Index(x, y)] = true
			}
		}
		assert.Len(t, seen, g.Count(), a.String())
		for i := 0; i < g.Count(); i++ {
			assert.True(t, seen[i], "%s misses %d", a, i)
		}
	}
}

func TestParseArrangementRejects(t *testing.T) {
	for _, bad := range []string{"", "LeftToRight_RightToLeft_Zigzag", "LeftToRight_TopToBottom_Spiral", "up_down"} {
		_, err := ParseArrangement(bad)
		assert.Error(t, err, bad)
	}
}

func TestMapBitmap(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 12))
	img.Set(10, 10, color.NRGBA{R: 255, A: 255})
	img.Set(11, 11, color.NRGBA{B: 255, A: 255})

	a, _ := ParseArrangement("LeftToRight_TopToBottom_Snake")
	g := Grid{Width: 2, Height: 3, Arrangement: a}
	px := g.Map(img)

	require.Len(t, px, 6)
	assert.Equal(t, pixel.Red, px[0])
	assert.Equal(t, pixel.Blue, px[2], "second row is reversed")
	assert.Equal(t, pixel.Black, px[4], "row outside the image stays black")

	rev := g.MapFunc(img, func(x, y, w, h int) int { return w*h - 1 - (y*w + x) })
	assert.Equal(t, pixel.Red, rev[5])
}
