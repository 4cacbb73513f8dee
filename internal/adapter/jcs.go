package adapter

import "github.com/gowebpki/jcs"

// JCS canonicalizes JSON documents per RFC 8785 so report digests are stable
//
//go:generate mockgen -source=jcs.go -destination=../mocks/jcs.go -package=mocks -mock_names=JCS=MockJCS
type JCS interface {
	Transform(data []byte) ([]byte, error)
}

type realJCS struct{}

// NewJCS creates a JCS backed by gowebpki/jcs
func NewJCS() JCS {
	return realJCS{}
}

func (realJCS) Transform(data []byte) ([]byte, error) {
	return jcs.Transform(data)
}
