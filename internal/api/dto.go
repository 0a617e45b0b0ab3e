package api

import (
	"time"

	"github.com/starford/notenest/internal/entryservice"
	"github.com/starford/notenest/internal/models"
)

// EntryRequest is the request body for creating or replacing an entry.
// Empty title and tags are derived from the note's first heading and #tags.
type EntryRequest struct {
	Title string   `json:"title" example:"Go memory model"`
	URL   string   `json:"url,omitempty" example:"https://go.dev/ref/mem"`
	Note  string   `json:"note" example:"Reread before #concurrency work"`
	Tags  []string `json:"tags,omitempty" example:"go,reading"`
}

func (r EntryRequest) draft() entryservice.Draft {
	return entryservice.Draft{Title: r.Title, URL: r.URL, Note: r.Note, Tags: r.Tags}
}

// EntryResponse is the wire form of an entry.
type EntryResponse struct {
	ID               string    `json:"id" example:"0b6b3c1e-7f0e-4a59-9a63-8f1a3d0f5d2e" validate:"required"`
	CreationDate     time.Time `json:"creationDate" validate:"required"`
	ModificationDate time.Time `json:"modificationDate" validate:"required"`
	Title            string    `json:"title" example:"Go memory model"`
	URL              *string   `json:"url"`
	Note             string    `json:"note"`
	Tags             []string  `json:"tags" validate:"required"`
	ETag             string    `json:"etag" example:"9f86d081884c7d65..." validate:"required"`
}

// EntryListResponse wraps entry listings.
type EntryListResponse struct {
	Entries []EntryResponse `json:"entries" validate:"required"`
	Total   int             `json:"total" example:"42" validate:"required"`
}

func toResponse(e models.Entry) EntryResponse {
	resp := EntryResponse{
		ID:               e.ID.String(),
		CreationDate:     e.CreationDate,
		ModificationDate: e.ModificationDate,
		Title:            e.Title,
		Note:             e.Note,
		Tags:             e.Tags,
		ETag:             entryservice.ETag(e),
	}
	if e.URL != nil {
		s := e.URL.String()
		resp.URL = &s
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}
