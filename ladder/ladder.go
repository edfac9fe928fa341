package ladder

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// referencePixels is the 1080p frame area every base bitrate is expressed against.
const referencePixels = 1920 * 1080

// FallbackCRF is used for the synthesized tier when the source is smaller than every catalog entry.
const FallbackCRF = 23

// Tier is a static catalog entry of the resolution ladder.
type Tier struct {
	Name        string
	Width       int
	Height      int
	BaseBitrate int // kbps
	CRF         int
}

// Pixels returns the frame area of the tier.
func (t Tier) Pixels() int {
	return t.Width * t.Height
}

// catalog is ordered by descending pixel count.
var catalog = [...]Tier{
	{Name: "2160p", Width: 3840, Height: 2160, BaseBitrate: 12000, CRF: 20},
	{Name: "1440p", Width: 2560, Height: 1440, BaseBitrate: 8000, CRF: 21},
	{Name: "1080p", Width: 1920, Height: 1080, BaseBitrate: 5000, CRF: 22},
	{Name: "720p", Width: 1280, Height: 720, BaseBitrate: 2500, CRF: 23},
	{Name: "480p", Width: 854, Height: 480, BaseBitrate: 1000, CRF: 24},
}

// Catalog returns a copy of the resolution catalog.
func Catalog() []Tier {
	out := make([]Tier, len(catalog))
	copy(out, catalog[:])
	return out
}

// PlannedTier is a catalog (or synthesized) tier with its computed target bitrate.
type PlannedTier struct {
	Tier
	Bitrate string // e.g. "1111k"
}

// Resolution formats the tier's exact dimensions as "WxH".
func (p PlannedTier) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Dir is the directory (and manifest path segment) used for the tier's output.
func (p PlannedTier) Dir() string {
	dir := strings.Trim(unsafeDirChars.ReplaceAllString(p.Name, "_"), "_")
	if dir == "" {
		return fmt.Sprintf("%dp", p.Height)
	}
	return dir
}

// Bitrate scales a base bitrate by frame area relative to 1080p and by complexity.
func Bitrate(baseKbps, width, height int, complexity float64) string {
	kbps := math.Round(float64(baseKbps) * float64(width*height) / referencePixels * complexity)
	return fmt.Sprintf("%dk", int64(kbps))
}

// ParseBitrate extracts the numeric kbps value from a string such as "1111k".
func ParseBitrate(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "k"))
	if err != nil {
		return 0, fmt.Errorf("invalid bitrate %q: %w", s, err)
	}
	return n, nil
}

// Plan selects every catalog tier that fits within the source frame area,
// ordered by descending pixel count. It never upscales and never returns an
// empty plan: a source smaller than the smallest tier yields a single tier at
// the source's exact dimensions.
//
// A complexity of zero or less is treated as 1.0.
func Plan(srcWidth, srcHeight int, complexity float64) []PlannedTier {
	if complexity <= 0 {
		complexity = 1.0
	}
	srcPixels := srcWidth * srcHeight

	var plan []PlannedTier
	for _, t := range catalog {
		if t.Pixels() > srcPixels {
			continue
		}
		plan = append(plan, PlannedTier{
			Tier:    t,
			Bitrate: Bitrate(t.BaseBitrate, t.Width, t.Height, complexity),
		})
	}
	if len(plan) > 0 {
		return plan
	}

	smallest := catalog[len(catalog)-1]
	return []PlannedTier{{
		Tier: Tier{
			Name:        fmt.Sprintf("%dp (source)", srcHeight),
			Width:       srcWidth,
			Height:      srcHeight,
			BaseBitrate: smallest.BaseBitrate,
			CRF:         FallbackCRF,
		},
		Bitrate: Bitrate(smallest.BaseBitrate, srcWidth, srcHeight, complexity),
	}}
}
