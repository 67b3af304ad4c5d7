// Package blacklist filters unwanted entries out of the broadcast schedule
// before poster generation.
package blacklist

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/yumemi1/animeposter/pkg/bangumi"
	"github.com/yumemi1/animeposter/pkg/logging"
)

// Rules declares what gets filtered. The zero value blocks nothing.
type Rules struct {
	// Keywords are substrings matched against titles; entries whose title
	// contains one are dropped (trailers, recaps, shorts).
	Keywords []string `yaml:"keywords"`
	// Studios are production companies whose shows are dropped.
	Studios []string `yaml:"studios"`
	// Titles are exact titles to drop, matched against both the original
	// and the Chinese name.
	Titles []string `yaml:"titles"`
	// BlockCNOrigin drops donghua detected by the origin heuristic.
	BlockCNOrigin bool `yaml:"block_cn_origin"`
}

// Default returns the built-in rule set.
func Default() Rules {
	return Rules{
		Keywords:      []string{"试看集", "PV", "预告", "OP", "ED", "CM", "番外", "OVA", "OAD"},
		BlockCNOrigin: true,
	}
}

// Load reads rules from a YAML file. A missing file yields the defaults.
func Load(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Rules{}, fmt.Errorf("reading blacklist rules: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("parsing blacklist rules: %w", err)
	}
	return r, nil
}

// Filter applies a rule set to subjects.
type Filter struct {
	rules Rules
	log   zerolog.Logger
}

// New returns a Filter for the given rules.
func New(rules Rules) *Filter {
	return &Filter{rules: rules, log: logging.GetLogger("blacklist")}
}

// IsBlacklisted reports whether the subject should be dropped and why.
func (f *Filter) IsBlacklisted(s *bangumi.Subject) (bool, string) {
	for _, kw := range f.rules.Keywords {
		if strings.Contains(s.Name, kw) || strings.Contains(s.NameCN, kw) {
			return true, "keyword: " + kw
		}
	}
	for _, t := range f.rules.Titles {
		if s.Name == t || s.NameCN == t {
			return true, "title: " + t
		}
	}
	if studio := productionStudio(s); studio != "" {
		for _, blocked := range f.rules.Studios {
			if strings.Contains(studio, blocked) {
				return true, "studio: " + blocked
			}
		}
	}
	if f.rules.BlockCNOrigin && isCNOrigin(s) {
		return true, "cn origin"
	}
	return false, ""
}

// Apply returns the subjects that survive the rules, logging each drop.
func (f *Filter) Apply(subjects []bangumi.Subject) []bangumi.Subject {
	kept := subjects[:0:0]
	for i := range subjects {
		if blocked, reason := f.IsBlacklisted(&subjects[i]); blocked {
			f.log.Debug().Str("title", subjects[i].Title()).Str("reason", reason).Msg("filtered out")
			continue
		}
		kept = append(kept, subjects[i])
	}
	return kept
}

var studioKeys = []string{"动画制作", "制作", "制作公司"}

// productionStudio pulls the animation studio out of the infobox, if listed.
func productionStudio(s *bangumi.Subject) string {
	for _, key := range studioKeys {
		for _, item := range s.Infobox {
			if item.Key == key {
				if v := item.Text(); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// Chinese studios whose presence marks a show as domestically produced.
var cnStudios = []string{
	"绘梦", "玄机", "视美", "娃娃鱼动画", "福煦影视", "中影年年", "原力动画", "若森数字",
}

// isCNOrigin guesses whether a show is a Chinese production. It checks the
// studio list first, then falls back to the title script: an original title
// written entirely without kana, matching its Chinese title, is most likely
// domestic.
func isCNOrigin(s *bangumi.Subject) bool {
	if studio := productionStudio(s); studio != "" {
		for _, cn := range cnStudios {
			if strings.Contains(studio, cn) {
				return true
			}
		}
	}
	if s.Name != "" && s.Name == s.NameCN && hasHan(s.Name) && !hasKana(s.Name) {
		return true
	}
	return false
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func hasKana(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			return true
		}
	}
	return false
}
