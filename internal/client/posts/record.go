// Package posts maps posts onto store records and appends them to the home zone.
package posts

import "github.com/and161185/zone-sharing/internal/model"

// RecordType is the store record type used for posts.
const RecordType = "SharedPost"

// Field names of a post record.
const (
	FieldMessage = "message"
	FieldAuthor  = "author"
)

// ToRecord builds the record for a new post. The id is left for the store to assign.
func ToRecord(p model.Post) model.Record {
	return model.Record{
		ZoneID: p.ZoneID,
		Type:   RecordType,
		Fields: map[string]any{
			FieldMessage: p.Message,
			FieldAuthor:  p.Author,
		},
	}
}

// FromRecord decodes a post. ok is false for records of another type or with a
// missing or non-string message or author.
func FromRecord(r model.Record) (model.Post, bool) {
	if r.Type != RecordType {
		return model.Post{}, false
	}
	msg, ok := r.Fields[FieldMessage].(string)
	if !ok {
		return model.Post{}, false
	}
	author, ok := r.Fields[FieldAuthor].(string)
	if !ok {
		return model.Post{}, false
	}
	return model.Post{
		ID:        r.ID,
		Message:   msg,
		Author:    author,
		ZoneID:    r.ZoneID,
		CreatedAt: r.CreatedAt,
	}, true
}
