package blacklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumemi1/animeposter/pkg/bangumi"
)

func TestKeywordMatch(t *testing.T) {
	f := New(Default())

	blocked, reason := f.IsBlacklisted(&bangumi.Subject{Name: "某番 OVA"})
	assert.True(t, blocked)
	assert.Equal(t, "keyword: OVA", reason)

	blocked, _ = f.IsBlacklisted(&bangumi.Subject{NameCN: "某番 预告"})
	assert.True(t, blocked)

	blocked, _ = f.IsBlacklisted(&bangumi.Subject{Name: "チェンソーマン"})
	assert.False(t, blocked)
}

func TestTitleMatch(t *testing.T) {
	f := New(Rules{Titles: []string{"Bad Show"}})

	blocked, reason := f.IsBlacklisted(&bangumi.Subject{Name: "Bad Show"})
	assert.True(t, blocked)
	assert.Equal(t, "title: Bad Show", reason)

	blocked, _ = f.IsBlacklisted(&bangumi.Subject{Name: "Bad Showcase"})
	assert.False(t, blocked, "title rules are exact matches")
}

func TestStudioMatch(t *testing.T) {
	f := New(Rules{Studios: []string{"MAPPA"}})
	s := &bangumi.Subject{
		Name:    "X",
		Infobox: []bangumi.InfoboxItem{{Key: "动画制作", Value: "MAPPA"}},
	}
	blocked, reason := f.IsBlacklisted(s)
	assert.True(t, blocked)
	assert.Equal(t, "studio: MAPPA", reason)
}

func TestCNOriginHeuristic(t *testing.T) {
	f := New(Rules{BlockCNOrigin: true})

	byStudio := &bangumi.Subject{
		Name:    "凡人修仙传",
		Infobox: []bangumi.InfoboxItem{{Key: "动画制作", Value: "原力动画"}},
	}
	blocked, reason := f.IsBlacklisted(byStudio)
	assert.True(t, blocked)
	assert.Equal(t, "cn origin", reason)

	byTitle := &bangumi.Subject{Name: "完美世界", NameCN: "完美世界"}
	blocked, _ = f.IsBlacklisted(byTitle)
	assert.True(t, blocked)

	japanese := &bangumi.Subject{Name: "葬送のフリーレン", NameCN: "葬送的芙莉莲"}
	blocked, _ = f.IsBlacklisted(japanese)
	assert.False(t, blocked)

	off := New(Rules{BlockCNOrigin: false})
	blocked, _ = off.IsBlacklisted(byStudio)
	assert.False(t, blocked)
}

func TestApply(t *testing.T) {
	f := New(Default())
	in := []bangumi.Subject{
		{Name: "Keep Me"},
		{Name: "Drop Me PV"},
		{Name: "Keep Me Too"},
	}
	out := f.Apply(in)
	require.Len(t, out, 2)
	assert.Equal(t, "Keep Me", out[0].Name)
	assert.Equal(t, "Keep Me Too", out[1].Name)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: [\"特别篇\"]\nblock_cn_origin: false\n"), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"特别篇"}, r.Keywords)
	assert.False(t, r.BlockCNOrigin)

	// Missing file falls back to the defaults.
	r, err = Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), r)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("keywords: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
