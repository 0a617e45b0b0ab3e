package mcpserver

// EntryFormatURI is the resource URI of EntryFormatContract.
const EntryFormatURI = "notenest://entry-format"

// EntryFormatContract describes what an entry is and how the add_entry tool
// derives missing fields. LLM clients should read it before writing.
const EntryFormatContract = `# NoteNest Entry Format

An entry is a bookmark-style note: a title, an optional link, free text and tags.

## Fields

| field            | set by  | notes                                                |
|------------------|---------|------------------------------------------------------|
| id               | server  | UUID, stable for the life of the entry               |
| creationDate     | server  | RFC 3339, UTC                                        |
| modificationDate | server  | RFC 3339, UTC; bumped on every update                |
| title            | client  | optional if the note starts with a "# Heading"       |
| url              | client  | optional; must be absolute (scheme and host)         |
| note             | client  | Markdown text                                        |
| tags             | client  | optional; defaults to the #tags found in the note    |

At least one of title or note must be non-empty.

## Derived values

- An empty title is taken from the first ` + "`# `" + ` heading of the note, or from a
  ` + "`title:`" + ` key in a leading YAML block fenced by ` + "`---`" + ` lines.
- Empty tags are collected from ` + "`tags:`" + ` in that YAML block and from inline
  ` + "`#tags`" + ` in the note. An inline tag starts with a letter and may contain
  letters, digits, ` + "`_`" + `, ` + "`-`" + ` and ` + "`/`" + `.

## Example

` + "```" + `markdown
# Go memory model

Reread before touching the #concurrency code. #go/reading
` + "```" + `

with url ` + "`https://go.dev/ref/mem`" + ` becomes an entry titled "Go memory model"
tagged ` + "`concurrency`" + ` and ` + "`go/reading`" + `.
`
