// Package bson provides a BSON codec for error payloads.
package bson

import (
	"github.com/zoobzio/faultline"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// bsonCodec implements faultline.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() faultline.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a BSON document. v must be document-shaped.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes a BSON document into v. Untyped documents decode as
// bson.M rather than bson.D so the walkers see maps.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return err
	}
	dec.DefaultDocumentM()
	return dec.Decode(v)
}
