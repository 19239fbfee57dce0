package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Script is a navigation script:
//
//	[initial]
//	user = "guest"
//
//	[[step]]
//	url = "/detail?id=7"
//	wait = true
//
//	[[step]]
//	back = true
type Script struct {
	// Initial is handed to the first page under the configured
	// initial data key.
	Initial map[string]any `toml:"initial"`
	Steps   []Step         `toml:"step"`
}

// Step is one scripted navigation.
type Step struct {
	URL     string `toml:"url"`
	Back    bool   `toml:"back"`
	NoCache bool   `toml:"no_cache"`
	// Wait blocks until the navigator is idle before the next step.
	Wait bool `toml:"wait"`
	// DelayMS sleeps before the step runs.
	DelayMS int `toml:"delay_ms"`
}

// Delay returns the pre-step sleep.
func (s Step) Delay() time.Duration {
	return time.Duration(s.DelayMS) * time.Millisecond
}

func (s Step) String() string {
	if s.Back {
		return "back"
	}
	return s.URL
}

// LoadScript reads a script file.
func LoadScript(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return DecodeScript(f)
}

// DecodeScript decodes a script and checks every step.
func DecodeScript(r io.Reader) (Script, error) {
	var s Script
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Script{}, fmt.Errorf("decode script: unknown keys %s", strings.Join(keys, ", "))
	}
	for i, step := range s.Steps {
		if step.Back == (step.URL != "") {
			return Script{}, fmt.Errorf("step %d: exactly one of url and back is required", i+1)
		}
		if step.DelayMS < 0 {
			return Script{}, fmt.Errorf("step %d: negative delay_ms", i+1)
		}
	}
	return s, nil
}
