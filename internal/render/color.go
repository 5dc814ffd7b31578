package render

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnsupportedColor 表示颜色写法无法在导出时转换为 sRGB（lab()、lch()、color() 等）。
var ErrUnsupportedColor = errors.New("unsupported color format")

var (
	colorFuncPattern = regexp.MustCompile(`^([a-z-]+)\((.*)\)$`)
	argSeparators    = strings.NewReplacer(",", " ", "/", " ")
	white            = colorful.Color{R: 1, G: 1, B: 1}
)

var namedColors = map[string]string{
	"black":         "#000000",
	"white":         "#ffffff",
	"red":           "#ff0000",
	"green":         "#008000",
	"blue":          "#0000ff",
	"navy":          "#000080",
	"teal":          "#008080",
	"purple":        "#800080",
	"maroon":        "#800000",
	"olive":         "#808000",
	"gray":          "#808080",
	"grey":          "#808080",
	"silver":        "#c0c0c0",
	"orange":        "#ffa500",
	"crimson":       "#dc143c",
	"indigo":        "#4b0082",
	"tomato":        "#ff6347",
	"coral":         "#ff7f50",
	"gold":          "#ffd700",
	"slategray":     "#708090",
	"darkslategray": "#2f4f4f",
	"royalblue":     "#4169e1",
	"steelblue":     "#4682b4",
	"seagreen":      "#2e8b57",
	"forestgreen":   "#228b22",
	"firebrick":     "#b22222",
}

// NormalizeColor flattens any supported CSS colour into "#rrggbb".
// Alpha is composited over white, since the page background is white.
func NormalizeColor(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", fmt.Errorf("%w: empty value", ErrUnsupportedColor)
	}
	if hex, ok := namedColors[v]; ok {
		return hex, nil
	}
	if strings.HasPrefix(v, "#") {
		c, err := parseHex(v[1:])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedColor, value)
		}
		return c.Clamped().Hex(), nil
	}

	m := colorFuncPattern.FindStringSubmatch(v)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedColor, value)
	}
	args := strings.Fields(argSeparators.Replace(m[2]))

	var (
		c   colorful.Color
		err error
	)
	switch m[1] {
	case "rgb", "rgba":
		c, err = parseRGB(args)
	case "hsl", "hsla":
		c, err = parseHSL(args)
	case "oklch":
		c, err = parseOkLch(args)
	case "oklab":
		c, err = parseOkLab(args)
	default:
		err = fmt.Errorf("%s() is not supported", m[1])
	}
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedColor, value, err)
	}
	return c.Clamped().Hex(), nil
}

func parseHex(h string) (colorful.Color, error) {
	switch len(h) {
	case 3, 4:
		var expanded strings.Builder
		for _, r := range h {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		h = expanded.String()
	case 6, 8:
	default:
		return colorful.Color{}, fmt.Errorf("bad hex length %d", len(h))
	}
	c, err := colorful.Hex("#" + h[:6])
	if err != nil {
		return colorful.Color{}, err
	}
	if len(h) == 8 {
		a, err := strconv.ParseUint(h[6:], 16, 8)
		if err != nil {
			return colorful.Color{}, err
		}
		c = withAlpha(c, float64(a)/255)
	}
	return c, nil
}

func parseRGB(args []string) (colorful.Color, error) {
	if len(args) != 3 && len(args) != 4 {
		return colorful.Color{}, errors.New("rgb() takes 3 or 4 arguments")
	}
	var ch [3]float64
	for i := range ch {
		v, err := parseNumber(args[i], 255)
		if err != nil {
			return colorful.Color{}, err
		}
		ch[i] = v / 255
	}
	c := colorful.Color{R: ch[0], G: ch[1], B: ch[2]}
	return applyAlpha(c, args)
}

func parseHSL(args []string) (colorful.Color, error) {
	if len(args) != 3 && len(args) != 4 {
		return colorful.Color{}, errors.New("hsl() takes 3 or 4 arguments")
	}
	h, err := parseHue(args[0])
	if err != nil {
		return colorful.Color{}, err
	}
	s, err := parseNumber(args[1], 100)
	if err != nil {
		return colorful.Color{}, err
	}
	l, err := parseNumber(args[2], 100)
	if err != nil {
		return colorful.Color{}, err
	}
	return applyAlpha(colorful.Hsl(h, s/100, l/100), args)
}

// oklch(L C H): L 为 0..1 或百分比，C 的 100% 对应 0.4。
func parseOkLch(args []string) (colorful.Color, error) {
	if len(args) != 3 && len(args) != 4 {
		return colorful.Color{}, errors.New("oklch() takes 3 or 4 arguments")
	}
	l, err := parseNumber(args[0], 1)
	if err != nil {
		return colorful.Color{}, err
	}
	ch, err := parseNumber(args[1], 0.4)
	if err != nil {
		return colorful.Color{}, err
	}
	h, err := parseHue(args[2])
	if err != nil {
		return colorful.Color{}, err
	}
	hr := h * math.Pi / 180
	return applyAlpha(okLab(l, ch*math.Cos(hr), ch*math.Sin(hr)), args)
}

func parseOkLab(args []string) (colorful.Color, error) {
	if len(args) != 3 && len(args) != 4 {
		return colorful.Color{}, errors.New("oklab() takes 3 or 4 arguments")
	}
	var v [3]float64
	scales := [3]float64{1, 0.4, 0.4}
	for i := range v {
		f, err := parseNumber(args[i], scales[i])
		if err != nil {
			return colorful.Color{}, err
		}
		v[i] = f
	}
	return applyAlpha(okLab(v[0], v[1], v[2]), args)
}

func applyAlpha(c colorful.Color, args []string) (colorful.Color, error) {
	if len(args) < 4 {
		return c, nil
	}
	a, err := parseNumber(args[3], 1)
	if err != nil {
		return colorful.Color{}, err
	}
	return withAlpha(c, a), nil
}

func withAlpha(c colorful.Color, alpha float64) colorful.Color {
	alpha = min(max(alpha, 0), 1)
	return white.BlendRgb(c, alpha)
}

// parseNumber reads "128" or "50%"; percentages are scaled to full.
func parseNumber(s string, full float64) (float64, error) {
	p, percent := strings.CutSuffix(s, "%")
	v, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if percent {
		v = v / 100 * full
	}
	return v, nil
}

func parseHue(s string) (float64, error) {
	unit := 1.0
	switch {
	case strings.HasSuffix(s, "deg"):
		s = strings.TrimSuffix(s, "deg")
	case strings.HasSuffix(s, "turn"):
		s, unit = strings.TrimSuffix(s, "turn"), 360
	case strings.HasSuffix(s, "rad"):
		s, unit = strings.TrimSuffix(s, "rad"), 180/math.Pi
	}
	v, err := parseNumber(s, 360)
	if err != nil {
		return 0, err
	}
	v = math.Mod(v*unit, 360)
	if v < 0 {
		v += 360
	}
	return v, nil
}

// okLab converts Oklab coordinates to sRGB through linear light.
func okLab(l, a, b float64) colorful.Color {
	l1 := l + 0.3963377774*a + 0.2158037573*b
	m1 := l - 0.1055613458*a - 0.0638541728*b
	s1 := l - 0.0894841775*a - 1.2914855480*b
	l3, m3, s3 := l1*l1*l1, m1*m1*m1, s1*s1*s1
	return colorful.LinearRgb(
		4.0767416621*l3-3.3077115913*m3+0.2309699292*s3,
		-1.2684380046*l3+2.6097574011*m3-0.3413193965*s3,
		-0.0041960863*l3-0.7034186147*m3+1.7076147010*s3,
	)
}
