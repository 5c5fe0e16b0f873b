package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey digests the JSON encoding of parts under a readable prefix, giving
// "prefix:<digest>". Parts must be JSON-encodable.
func hashKey(prefix string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		panic("cache: unencodable key part: " + err.Error())
	}
	return prefix + ":" + Hash(data)
}
