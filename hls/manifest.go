package hls

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vodforge/ladder"
	"vodforge/models"
)

// MasterName is the filename of the top-level manifest.
const MasterName = "master.m3u8"

// BuildMaster renders the master manifest for the variants, in the given order.
func BuildMaster(variants []models.VariantPlaylist) (string, error) {
	lines := []string{"#EXTM3U", "#EXT-X-VERSION:3"}
	for _, v := range variants {
		kbps, err := ladder.ParseBitrate(v.Bitrate)
		if err != nil {
			return "", err
		}
		lines = append(lines,
			fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d", kbps*1000, v.Width, v.Height),
			v.PlaylistPath,
		)
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// WriteMaster writes master.m3u8 into dir and returns its path.
func WriteMaster(dir string, variants []models.VariantPlaylist) (string, error) {
	content, err := BuildMaster(variants)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, MasterName)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write master playlist %s: %w", p, err)
	}
	return p, nil
}
