package services

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var (
	voiceTag = regexp.MustCompile(`^<v(?:\.[^\s>]*)?\s+([^>]+)>`)
	cueTag   = regexp.MustCompile(`</?[^>]+>`)
)

// ParseVTT parses WEBVTT cues. Voice tags (<v Speaker>) set the speaker;
// other markup is dropped. Headers, notes and cue identifiers are skipped.
func ParseVTT(content string) []domain.TranscriptEntry {
	var entries []domain.TranscriptEntry
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cur     *domain.TranscriptEntry
		text    []string
		speaker string
	)
	flush := func() {
		if cur != nil && len(text) > 0 {
			cur.Text = strings.Join(text, " ")
			cur.Speaker = speaker
			entries = append(entries, *cur)
		}
		cur, text, speaker = nil, nil, ""
	}

	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		switch {
		case line == "":
			flush()
		case strings.Contains(line, "-->"):
			flush()
			start, end, _ := strings.Cut(line, "-->")
			end = strings.TrimSpace(end)
			// Cue settings follow the end timestamp.
			if i := strings.IndexAny(end, " \t"); i >= 0 {
				end = end[:i]
			}
			cur = &domain.TranscriptEntry{Start: strings.TrimSpace(start), End: end}
		case cur != nil:
			if m := voiceTag.FindStringSubmatch(line); m != nil && speaker == "" {
				speaker = strings.TrimSpace(m[1])
			}
			if t := strings.TrimSpace(cueTag.ReplaceAllString(line, "")); t != "" {
				text = append(text, t)
			}
		}
	}
	flush()
	return entries
}
