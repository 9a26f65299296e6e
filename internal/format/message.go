// Package format builds Telegram messages with explicit entities. Text is
// never re-parsed for markup, so rule names and categories are sent as typed.
package format

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len calculates the UTF-16 length of a string.
// Telegram uses UTF-16 code units for entity offsets and lengths.
func UTF16Len(s string) int {
	length := 0
	for _, b := range []byte(s) {
		if (b & 0xc0) != 0x80 {
			if b >= 0xf0 {
				length += 2 // surrogate pair
			} else {
				length++
			}
		}
	}
	return length
}

type Builder struct {
	sb       strings.Builder
	offset   int
	entities []tgbotapi.MessageEntity
}

func (b *Builder) Text(s string) *Builder {
	b.sb.WriteString(s)
	b.offset += UTF16Len(s)
	return b
}

func (b *Builder) Textf(format string, args ...any) *Builder {
	return b.Text(fmt.Sprintf(format, args...))
}

func (b *Builder) Line() *Builder {
	return b.Text("\n")
}

func (b *Builder) Bold(s string) *Builder {
	return b.entity("bold", s)
}

func (b *Builder) Italic(s string) *Builder {
	return b.entity("italic", s)
}

func (b *Builder) Code(s string) *Builder {
	return b.entity("code", s)
}

func (b *Builder) entity(kind, s string) *Builder {
	if s == "" {
		return b
	}
	b.entities = append(b.entities, tgbotapi.MessageEntity{
		Type:   kind,
		Offset: b.offset,
		Length: UTF16Len(s),
	})
	return b.Text(s)
}

// Result returns the accumulated text with trailing whitespace removed.
// Entities are already in offset order.
func (b *Builder) Result() ParseResult {
	return ParseResult{
		Text:     strings.TrimRight(b.sb.String(), " \n"),
		Entities: b.entities,
	}
}
