package utils

import (
	"fmt"
	"time"
)

// XPForNextLevel is the experience shown as the next level threshold.
const XPForNextLevel = 2000

// LevelProgress returns the share of XPForNextLevel reached, capped at 100.
func LevelProgress(xp int) float64 {
	if xp <= 0 {
		return 0
	}
	p := float64(xp) / XPForNextLevel * 100
	if p > 100 {
		return 100
	}
	return p
}

// RelativeAge buckets the distance between t and now into a coarse label.
// A zero t means the server timestamp has not been assigned yet.
func RelativeAge(now, t time.Time) string {
	if t.IsZero() {
		return "Just now"
	}
	minutes := int(now.Sub(t).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh ago", minutes/60)
	default:
		return fmt.Sprintf("%dd ago", minutes/1440)
	}
}
