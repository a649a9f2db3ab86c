package kserde

// Serde pairs a Serializer and Deserializer for T. Stores and the manifest
// codec are parameterized with a Serde instead of a concrete encoding.
type Serde[T any] struct {
	Serializer   Serializer[T]
	Deserializer Deserializer[T]
}

type Serializer[T any] func(T) ([]byte, error)

type Deserializer[T any] func([]byte) (T, error)
