// Package sections recovers the outline of a generated filing from its
// headings and splices rewritten content back into it.
package sections

import (
	"strings"

	"pecajuridica-backend/templates"
)

// Section is a span of document lines under one heading.
// Content lines are [Start, End); HeadingLine is the heading itself.
type Section struct {
	Heading     string `json:"heading"`
	Key         string `json:"key"`
	BlockName   string `json:"block_name,omitempty"`
	Level       int    `json:"level"`
	HeadingLine int    `json:"heading_line"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
}

// Document is parsed text plus its sections in order of appearance
type Document struct {
	Lines    []string
	Sections []Section
	byBlock  map[string]int
}

// Parse splits text into lines and sections, matching headings to the
// given template section names. Headings that match nothing are kept as
// sections with an empty BlockName.
func Parse(text string, blocks []string) *Document {
	doc := &Document{
		Lines:   strings.Split(text, "\n"),
		byBlock: make(map[string]int),
	}

	for i, line := range doc.Lines {
		level, title, ok := headingOf(line)
		if !ok {
			continue
		}
		if n := len(doc.Sections); n > 0 {
			doc.Sections[n-1].End = i
		}
		doc.Sections = append(doc.Sections, Section{
			Heading:     title,
			Key:         NormalizeKey(title),
			Level:       level,
			HeadingLine: i,
			Start:       i + 1,
			End:         len(doc.Lines),
		})
	}

	doc.matchBlocks(blocks)
	return doc
}

// headingOf reports whether line is a heading of depth >= 2
func headingOf(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level < 2 {
		return 0, "", false
	}
	title := cleanHeading(trimmed[level:])
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

func (d *Document) matchBlocks(blocks []string) {
	keys := make([]string, len(blocks))
	for i, name := range blocks {
		keys[i] = NormalizeKey(templates.SectionTitle(name))
	}

	// exact matches first so a loose match never steals a block
	for i := range d.Sections {
		for b, key := range keys {
			if key == d.Sections[i].Key {
				d.claim(i, blocks[b])
				break
			}
		}
	}

	for i := range d.Sections {
		if d.Sections[i].BlockName != "" {
			continue
		}
		padded := "_" + d.Sections[i].Key + "_"
		best := -1
		for b, key := range keys {
			if key == "" || !strings.Contains(padded, "_"+key+"_") {
				continue
			}
			if _, taken := d.byBlock[blocks[b]]; taken {
				continue
			}
			if best < 0 || len(key) > len(keys[best]) {
				best = b
			}
		}
		if best >= 0 {
			d.claim(i, blocks[best])
		}
	}
}

func (d *Document) claim(i int, block string) {
	if _, taken := d.byBlock[block]; taken {
		return
	}
	d.Sections[i].BlockName = block
	d.byBlock[block] = i
}

// Section returns the section matched to a template section name
func (d *Document) Section(block string) (Section, bool) {
	i, ok := d.byBlock[block]
	if !ok {
		return Section{}, false
	}
	return d.Sections[i], true
}

// Resolve finds a section by template name or by normalized heading
func (d *Document) Resolve(identifier string) (Section, bool) {
	if s, ok := d.Section(identifier); ok {
		return s, true
	}
	key := NormalizeKey(identifier)
	if key == "" {
		return Section{}, false
	}
	if s, ok := d.Section(key); ok {
		return s, true
	}
	for _, s := range d.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Content returns the trimmed text of a section
func (d *Document) Content(s Section) string {
	return Content(d.Lines, s)
}

// Text joins the document lines back together
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// Content returns the trimmed text of the span, or "" when it is empty
func Content(lines []string, s Section) string {
	if s.Start >= s.End || s.Start >= len(lines) {
		return ""
	}
	end := s.End
	if end > len(lines) {
		end = len(lines)
	}
	return strings.TrimSpace(strings.Join(lines[s.Start:end], "\n"))
}

// Replace substitutes the content span of s with newText and returns a new
// line slice. Lines outside the span are copied unchanged, and blank lines
// bordering the old content are kept around the new content. The new content
// never adds sections: see contentLines.
func Replace(lines []string, s Section, newText string) []string {
	start, end := s.Start, s.End
	if start > len(lines) {
		start = len(lines)
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	span := lines[start:end]

	lead := 0
	for lead < len(span) && strings.TrimSpace(span[lead]) == "" {
		lead++
	}
	trail := 0
	if lead == len(span) {
		if lead > 0 {
			lead = 1
		}
		trail = len(span) - lead
	} else {
		for strings.TrimSpace(span[len(span)-1-trail]) == "" {
			trail++
		}
	}

	body := contentLines(s, newText)

	out := make([]string, 0, len(lines)-len(span)+lead+len(body)+trail)
	out = append(out, lines[:start]...)
	out = append(out, span[:lead]...)
	out = append(out, body...)
	out = append(out, span[len(span)-trail:]...)
	out = append(out, lines[end:]...)
	return out
}

// CleanContent returns newText as Replace splices it into s
func CleanContent(s Section, newText string) string {
	return strings.Join(contentLines(s, newText), "\n")
}

// contentLines splits newText into body lines for s. A leading heading that
// repeats the title of s is dropped, and any other heading is turned into
// bold text so the outline of the document is unchanged.
func contentLines(s Section, newText string) []string {
	trimmed := strings.TrimSpace(newText)
	if trimmed == "" {
		return nil
	}
	body := strings.Split(trimmed, "\n")

	if _, title, ok := headingOf(body[0]); ok && s.titled(title) {
		body = body[1:]
		for len(body) > 0 && strings.TrimSpace(body[0]) == "" {
			body = body[1:]
		}
	}
	for i, line := range body {
		if _, title, ok := headingOf(line); ok {
			body[i] = "**" + title + "**"
		}
	}
	return body
}

// titled reports whether a heading title names s
func (s Section) titled(title string) bool {
	key := NormalizeKey(title)
	if key == "" {
		return false
	}
	if key == s.Key {
		return true
	}
	if s.BlockName == "" {
		return false
	}
	return key == NormalizeKey(s.BlockName) || key == NormalizeKey(templates.SectionTitle(s.BlockName))
}
