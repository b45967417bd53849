package utils

import "time"

const (
	DefaultRequestTimeout = 15 * time.Second
	MaxResponseSize       = 1 << 20 // 1 MiB

	UserAgent = "supacreds (+https://github.com/Brawl345/supacreds)"
)
