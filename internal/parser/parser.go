// Package parser derives entry metadata (title and tags) from note text.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Meta is what a note says about itself.
type Meta struct {
	Title string
	Tags  []string
	Body  string
}

// frontMatter is the subset of the YAML header a note may carry.
type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// Parse reads an optional YAML header, inline #tags and the first H1 heading
// from note. Header values take precedence; malformed headers are ignored and
// the whole note is treated as body.
func Parse(note string) Meta {
	fm, body := splitHeader(note)

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = firstHeading(body)
	}
	return Meta{
		Title: title,
		Tags:  collectTags(fm.Tags, body),
		Body:  body,
	}
}

func splitHeader(note string) (frontMatter, string) {
	const delim = "---"
	var fm frontMatter

	trimmed := strings.TrimLeft(note, "\r\n")
	if !strings.HasPrefix(trimmed, delim) {
		return fm, note
	}
	rest := trimmed[len(delim):]
	end := strings.Index(rest, "\n"+delim)
	if end < 0 {
		return fm, note
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return frontMatter{}, note
	}
	body := strings.TrimLeft(rest[end+1+len(delim):], "\r\n")
	return fm, body
}

func collectTags(header []string, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, tag := range header {
		add(tag)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
