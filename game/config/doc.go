// Package config manages rule presets for game rooms.
//
// A preset is a JSON file in the configs directory that decodes into
// trivia.Settings. The file name without extension is the preset id used
// when creating a room:
//
//	{
//	  "name": "classic",
//	  "round_duration": "30s",
//	  "tick_interval": "1s",
//	  "countdown_ticks": 3,
//	  "countdown_interval": "1s",
//	  "rounds_per_session": 5,
//	  "tiers": [{"within": "5s", "points": 20}, {"within": "15s", "points": 10}],
//	  "slow_points": 5
//	}
//
// Presets are validated with trivia.ValidateSettings and cached after the
// first load. The default preset is "classic"; without it the first valid
// file is used, and an empty directory falls back to trivia.DefaultSettings.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	settings, err := manager.LoadConfig("blitz")
//	presets, err := manager.ListConfigs()
package config
