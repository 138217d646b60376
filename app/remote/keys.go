package remote

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// Key prefixes for stored records
	DocKeyPrefix         = "doc:"
	IdempotencyKeyPrefix = "idem:"
)

func docPrefix(collection string) []byte {
	return []byte(DocKeyPrefix + collection + ":")
}

func docKey(collection, id string) []byte {
	return []byte(DocKeyPrefix + collection + ":" + id)
}

func idempotencyKey(collection, key string) []byte {
	return []byte(IdempotencyKeyPrefix + collection + ":" + key)
}

// record is the stored form of a Document.
type record struct {
	ID         string    `json:"id"`
	Fields     Fields    `json:"fields"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
	Version    int64     `json:"version"`
}

// marshalDocument marshals a document to JSON
func marshalDocument(doc *Document) ([]byte, error) {
	data, err := json.Marshal(record{
		ID:         doc.ID,
		Fields:     doc.Fields,
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
		Version:    doc.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %v", err)
	}
	return data, nil
}

// unmarshalDocument unmarshals JSON data into a document
func unmarshalDocument(data []byte) (*Document, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w: %v", ErrCorrupt, err)
	}
	if rec.Fields == nil {
		rec.Fields = Fields{}
	}
	return &Document{
		ID:         rec.ID,
		Fields:     rec.Fields,
		CreateTime: rec.CreateTime,
		UpdateTime: rec.UpdateTime,
		Version:    rec.Version,
	}, nil
}
