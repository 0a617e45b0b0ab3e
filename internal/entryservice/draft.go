package entryservice

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notenest/internal/apperr"
	"github.com/starford/notenest/internal/parser"
)

const (
	maxTitleLen = 200
	maxTags     = 32
)

// Draft is the user-editable part of an entry.
type Draft struct {
	Title string
	URL   string
	Note  string
	Tags  []string
}

// Validate checks the draft before it becomes an entry.
func (d *Draft) Validate() error {
	err := validation.ValidateStruct(d,
		validation.Field(&d.Title, validation.Length(0, maxTitleLen)),
		validation.Field(&d.URL, validation.By(absoluteURL)),
		validation.Field(&d.Tags, validation.Length(0, maxTags), validation.Each(validation.Required)),
	)
	if err == nil && strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Note) == "" {
		err = errors.New("title or note is required")
	}
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

// resolved is a validated draft with derived metadata filled in.
type resolved struct {
	title string
	link  *url.URL
	note  string
	tags  []string
}

// resolve fills an empty title from the note's heading and empty tags from
// the note's #tags. Call Validate first.
func (d *Draft) resolve() resolved {
	meta := parser.Parse(d.Note)

	r := resolved{
		title: strings.TrimSpace(d.Title),
		note:  d.Note,
		tags:  d.Tags,
	}
	if r.title == "" {
		r.title = meta.Title
	}
	if len(r.tags) == 0 {
		r.tags = meta.Tags
	}
	if r.tags == nil {
		r.tags = []string{}
	}
	if d.URL != "" {
		r.link, _ = url.Parse(d.URL)
	}
	return r
}
