package kserde

var StringDeserializer = func(data []byte) (string, error) {
	return string(data), nil
}

var StringSerializer = func(data string) ([]byte, error) {
	return []byte(data), nil
}

// String passes strings through as raw bytes. Used for event record keys.
var String = Serde[string]{
	Serializer:   StringSerializer,
	Deserializer: StringDeserializer,
}
